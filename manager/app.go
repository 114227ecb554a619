package manager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/netbirdio/selfupdate/version"
)

// AppInfo identifies the application being updated.
type AppInfo struct {
	Name           string
	Version        version.Version
	ExecutablePath string
}

// DetectAppInfo describes the running process under the given name and
// version.
func DetectAppInfo(name string, current version.Version) (AppInfo, error) {
	exe, err := os.Executable()
	if err != nil {
		return AppInfo{}, fmt.Errorf("get executable path: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return AppInfo{
		Name:           name,
		Version:        current,
		ExecutablePath: exe,
	}, nil
}
