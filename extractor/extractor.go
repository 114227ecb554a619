// Package extractor unpacks downloaded package artifacts into a directory.
package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/netbirdio/selfupdate/progress"
)

// Extractor unpacks the archive at archivePath into destDir, creating
// directories as needed. Entries whose name ends with a slash become empty
// directories. Progress is bytes written over the total uncompressed size.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string, reporter progress.Reporter) error
}

// entryPath maps an archive entry name to its destination below destDir,
// applying the optional root prefix. ok is false when the entry is outside
// the root or maps to the root itself.
func entryPath(destDir, root, name string) (string, bool, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	isDir := strings.HasSuffix(name, "/")

	if root != "" {
		if !strings.HasPrefix(name, root) {
			return "", false, nil
		}
		name = strings.TrimPrefix(name, root)
	}

	clean := path.Clean(name)
	if clean == "." || clean == "/" {
		return "", false, nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", false, fmt.Errorf("archive entry %q escapes destination", name)
	}

	target := filepath.Join(destDir, filepath.FromSlash(clean))
	if isDir {
		target += string(os.PathSeparator)
	}
	return target, true, nil
}

// normalizeRoot turns "content", "/content" or "content\" into "content/".
func normalizeRoot(root string) string {
	root = strings.Trim(strings.ReplaceAll(root, "\\", "/"), "/")
	if root == "" {
		return ""
	}
	return root + "/"
}

type counter struct {
	total    int64
	written  int64
	reporter progress.Reporter
}

func (c *counter) add(n int) {
	c.written += int64(n)
	if c.total > 0 {
		progress.Report(c.reporter, float64(c.written)/float64(c.total))
	}
}

const copyBufferSize = 81920

// writeFile copies src into target, honouring ctx between chunks.
func writeFile(ctx context.Context, target string, mode os.FileMode, src io.Reader, c *counter) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}

	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	buf := make([]byte, copyBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			_ = out.Close()
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				_ = out.Close()
				return fmt.Errorf("write %s: %w", target, werr)
			}
			c.add(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = out.Close()
			return fmt.Errorf("read archive entry for %s: %w", target, rerr)
		}
	}
	return out.Close()
}

func isDirTarget(target string) bool {
	return strings.HasSuffix(target, string(os.PathSeparator))
}
