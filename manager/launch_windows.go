package manager

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"

	"github.com/netbirdio/selfupdate/util"
)

func spawnUpdater(path string, args []string, elevate bool) error {
	if elevate {
		return runElevated(path, args)
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = filepath.Dir(path)
	return util.StartDetached(cmd)
}

// runElevated starts path through the UAC "runas" verb. ShellExecute does
// not report the new process id.
func runElevated(path string, args []string) error {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = syscall.EscapeArg(arg)
	}

	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	params, err := windows.UTF16PtrFromString(strings.Join(quoted, " "))
	if err != nil {
		return err
	}
	dir, err := windows.UTF16PtrFromString(filepath.Dir(path))
	if err != nil {
		return err
	}

	if err := windows.ShellExecute(0, verb, file, params, dir, windows.SW_HIDE); err != nil {
		return fmt.Errorf("elevate updater: %w", err)
	}

	log.Infof("elevated updater started: %s", path)
	return nil
}
