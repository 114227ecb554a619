package updater

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/skratchdot/open-golang/open"
)

// restartTarget is how the updatee gets started again.
type restartTarget struct {
	name string
	args []string
	// opener is set when nothing can execute the updatee and the system
	// file association is used instead; arguments are lost in that case.
	opener bool
}

// resolveRestart picks the first usable way to start the updatee: the file
// itself, a launcher stub with the same base name, the configured runtime
// launcher, or the system opener.
func (u *Updater) resolveRestart() restartTarget {
	path := u.args.UpdateePath
	routed := u.args.RoutedArgs

	if isExecutable(path) {
		return restartTarget{name: path, args: routed}
	}

	if stub := stubPath(path); stub != path && isExecutable(stub) {
		return restartTarget{name: stub, args: routed}
	}

	if len(u.cfg.Launcher) > 0 {
		args := append([]string{}, u.cfg.Launcher[1:]...)
		args = append(args, path)
		args = append(args, routed...)
		return restartTarget{name: u.cfg.Launcher[0], args: args}
	}

	return restartTarget{name: path, opener: true}
}

func (u *Updater) restart() error {
	target := u.resolveRestart()

	if target.opener {
		if len(u.args.RoutedArgs) > 0 {
			u.logger.Warnf("restarting %s through the system opener, arguments are dropped", target.name)
		}
		u.logger.Infof("opening %s", target.name)
		return u.openFile(target.name)
	}

	cmd := exec.Command(target.name, target.args...)
	cmd.Dir = filepath.Dir(u.args.UpdateePath)
	u.logger.Infof("restarting: %s", cmd.String())
	return u.startProcess(cmd)
}

// stubPath is the launcher stub that may sit beside a non executable
// updatee, e.g. MyApp.exe next to MyApp.dll.
func stubPath(path string) string {
	stub := strings.TrimSuffix(path, filepath.Ext(path))
	if runtime.GOOS == "windows" {
		stub += ".exe"
	}
	return stub
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	if runtime.GOOS == "windows" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".exe", ".com", ".bat", ".cmd":
			return true
		}
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

func openWithSystem(target string) error {
	return open.Start(target)
}
