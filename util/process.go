package util

import (
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// StartDetached starts cmd in its own session without waiting for it and
// releases the process handle so the child outlives the caller.
func StartDetached(cmd *exec.Cmd) error {
	DetachProcess(cmd)

	if err := cmd.Start(); err != nil {
		return err
	}

	log.Infof("process started with PID %d: %s", cmd.Process.Pid, cmd.Path)

	// Release the process so the OS can fully detach it
	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release process: %v", err)
	}
	return nil
}
