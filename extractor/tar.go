package extractor

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/progress"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Tar extracts tar archives, plain or compressed with gzip or zstd. The
// compression is detected from the stream header, not the file name, since
// artifacts are stored under version based names.
type Tar struct {
	root string
}

// NewTar extracts the whole archive, or only entries below root when root is
// not empty.
func NewTar(root string) *Tar {
	return &Tar{root: normalizeRoot(root)}
}

func (t *Tar) Extract(ctx context.Context, archivePath, destDir string, reporter progress.Reporter) error {
	c := &counter{reporter: reporter}

	// first pass: sizes, so progress has a denominator before anything is written
	err := t.walk(archivePath, func(hdr *tar.Header, _ io.Reader) error {
		target, ok, err := entryPath(destDir, t.root, tarName(hdr))
		if err != nil || !ok {
			return err
		}
		if hdr.Typeflag == tar.TypeReg && !isDirTarget(target) {
			c.total += hdr.Size
		}
		return nil
	})
	if err != nil {
		return err
	}

	var count int
	err = t.walk(archivePath, func(hdr *tar.Header, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, ok, err := entryPath(destDir, t.root, tarName(hdr))
		if err != nil || !ok {
			return err
		}

		switch {
		case hdr.Typeflag == tar.TypeDir || isDirTarget(target):
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case hdr.Typeflag == tar.TypeReg:
			if err := writeFile(ctx, target, os.FileMode(hdr.Mode).Perm(), r, c); err != nil {
				return err
			}
		default:
			log.Debugf("skipping tar entry %s of type %c", hdr.Name, hdr.Typeflag)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	log.Debugf("extracted %d entries from %s to %s", count, archivePath, destDir)
	return nil
}

// tarName marks directory headers with a trailing slash so they map to
// directory targets like zip entries do.
func tarName(hdr *tar.Header) string {
	if hdr.Typeflag == tar.TypeDir && len(hdr.Name) > 0 && hdr.Name[len(hdr.Name)-1] != '/' {
		return hdr.Name + "/"
	}
	return hdr.Name
}

func (t *Tar) walk(archivePath string, fn func(*tar.Header, io.Reader) error) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open tar %s: %w", archivePath, err)
	}
	defer f.Close()

	stream, closeStream, err := decompress(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("open tar %s: %w", archivePath, err)
	}
	defer closeStream()

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar %s: %w", archivePath, err)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}
