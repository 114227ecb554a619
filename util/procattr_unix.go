//go:build unix

package util

import (
	"os/exec"
	"syscall"
)

// DetachProcess configures cmd to run in a new session, making it
// independent of the parent process. The child keeps running once the
// parent exits.
func DetachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
