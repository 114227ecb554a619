package util

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// DetachProcess configures cmd to run detached from the parent console and
// process group.
func DetachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
