//go:build unix

package manager

import (
	"errors"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/util"
)

var elevationTools = []string{"pkexec", "sudo"}

func spawnUpdater(path string, args []string, elevate bool) error {
	name, argv := path, args
	if elevate {
		tool, err := elevationTool()
		if err != nil {
			return err
		}
		log.Infof("elevating updater with %s", tool)
		name = tool
		argv = append([]string{path}, args...)
	}

	cmd := exec.Command(name, argv...)
	cmd.Dir = filepath.Dir(path)
	return util.StartDetached(cmd)
}

func elevationTool() (string, error) {
	for _, tool := range elevationTools {
		if p, err := exec.LookPath(tool); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no elevation tool found (tried pkexec, sudo)")
}
