package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

const DefaultLocalPattern = "*.onv"

// Local serves packages stored as <version>.<ext> files directly inside a
// repository directory.
type Local struct {
	dir     string
	pattern glob.Glob
}

// NewLocal creates a source over dir. An empty pattern means DefaultLocalPattern.
func NewLocal(dir string, pattern string) (*Local, error) {
	if pattern == "" {
		pattern = DefaultLocalPattern
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	return &Local{dir: dir, pattern: g}, nil
}

func (l *Local) packages() (map[string]string, *version.Set, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, version.NewSet(), nil
		}
		return nil, nil, fmt.Errorf("read repository %s: %w", l.dir, err)
	}

	files := make(map[string]string)
	set := version.NewSet()
	for _, e := range entries {
		if e.IsDir() || !l.pattern.Match(e.Name()) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		v, err := version.Parse(name)
		if err != nil {
			log.Debugf("skipping %s: %v", e.Name(), err)
			continue
		}
		set.Add(v)
		files[v.Canonical()] = filepath.Join(l.dir, e.Name())
	}
	return files, set, nil
}

func (l *Local) ListVersions(_ context.Context) (*version.Set, error) {
	_, set, err := l.packages()
	return set, err
}

func (l *Local) Download(ctx context.Context, v version.Version, destPath string, reporter progress.Reporter) error {
	files, _, err := l.packages()
	if err != nil {
		return err
	}
	src, ok := files[v.Canonical()]
	if !ok {
		return notFound(v)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open package %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %q: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Warnf("error closing file %q: %v", destPath, cerr)
		}
	}()

	return copyWithProgress(ctx, out, in, info.Size(), reporter)
}
