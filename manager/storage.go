package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/netbirdio/selfupdate/updater"
	"github.com/netbirdio/selfupdate/util"
	"github.com/netbirdio/selfupdate/version"
)

const (
	lockFileName      = "Onova.lock"
	artifactExtension = ".onv"
)

// storage is the per-application directory holding downloaded artifacts,
// prepared package content, the staged updater and the lock file.
type storage struct {
	root    string
	appName string
}

func defaultStorageDir(appName string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// artifactPath and contentDir reuse an existing entry whose name is a
// version equal to v, so 2.0 and 2.0.0 share one slot. New entries are
// named after v.String().
func (s storage) artifactPath(v version.Version) string {
	return filepath.Join(s.root, s.entryName(v, artifactExtension, false))
}

func (s storage) contentDir(v version.Version) string {
	return filepath.Join(s.root, s.entryName(v, "", true))
}

func (s storage) entryName(v version.Version, ext string, dir bool) string {
	name := v.String() + ext
	if info, err := os.Stat(filepath.Join(s.root, name)); err == nil && info.IsDir() == dir {
		return name
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return name
	}
	for _, entry := range entries {
		if entry.IsDir() != dir || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		other, err := version.Parse(strings.TrimSuffix(entry.Name(), ext))
		if err == nil && other.Equal(v) {
			return entry.Name()
		}
	}
	return name
}

func (s storage) updaterPath() string {
	return filepath.Join(s.root, updater.BinaryName(s.appName))
}

func (s storage) updaterConfigPath() string {
	return updater.ConfigPath(s.updaterPath())
}

func (s storage) lockPath() string {
	return filepath.Join(s.root, lockFileName)
}

// isPrepared is the on-disk proxy for a prepared update: content present,
// artifact gone and the updater staged.
func (s storage) isPrepared(v version.Version) bool {
	return util.DirExists(s.contentDir(v)) &&
		!util.FileExists(s.artifactPath(v)) &&
		util.FileExists(s.updaterPath())
}

func (s storage) prepared() ([]version.Version, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	set := version.NewSet()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.Parse(entry.Name())
		if err != nil {
			continue
		}
		if s.isPrepared(v) {
			set.Add(v)
		}
	}
	return set.Sorted(), nil
}

func (s storage) resetContentDir(v version.Version) (string, error) {
	dir := s.contentDir(v)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}
