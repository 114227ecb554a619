package extractor

import (
	"archive/zip"
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/progress"
)

// Zip extracts zip archives. With a root set, only entries below that
// folder are extracted and the folder prefix is stripped.
type Zip struct {
	root string
}

// NewZip extracts every entry of the archive.
func NewZip() *Zip {
	return &Zip{}
}

// NewSubPath extracts only entries below root, e.g. the "lib/net8.0" folder
// of a package that also carries metadata.
func NewSubPath(root string) *Zip {
	return &Zip{root: normalizeRoot(root)}
}

func (z *Zip) Extract(ctx context.Context, archivePath, destDir string, reporter progress.Reporter) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", archivePath, err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warnf("failed to close zip %s: %v", archivePath, err)
		}
	}()

	type entry struct {
		file   *zip.File
		target string
	}

	var (
		entries []entry
		c       = &counter{reporter: reporter}
	)
	for _, f := range r.File {
		target, ok, err := entryPath(destDir, z.root, f.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		entries = append(entries, entry{file: f, target: target})
		if !isDirTarget(target) {
			c.total += int64(f.UncompressedSize64)
		}
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if isDirTarget(e.target) {
			if err := os.MkdirAll(e.target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", e.target, err)
			}
			continue
		}

		if err := extractZipFile(ctx, e.file, e.target, c); err != nil {
			return err
		}
	}

	log.Debugf("extracted %d entries from %s to %s", len(entries), archivePath, destDir)
	return nil
}

func extractZipFile(ctx context.Context, f *zip.File, target string, c *counter) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	return writeFile(ctx, target, f.Mode().Perm(), rc, c)
}
