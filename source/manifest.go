package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

const maxManifestSize = 4 << 20

// Manifest resolves packages from a plain text document where every non
// blank line reads "<token containing a version> <url>".
type Manifest struct {
	url    string
	client *http.Client
}

// NewManifest creates a manifest source. A nil client falls back to
// DefaultHTTPClient.
func NewManifest(manifestURL string, client *http.Client) *Manifest {
	return &Manifest{url: manifestURL, client: client}
}

func (m *Manifest) entries(ctx context.Context) (map[string]string, *version.Set, error) {
	data, err := downloadToMemory(ctx, m.client, m.url, nil, maxManifestSize)
	if err != nil {
		return nil, nil, err
	}
	return ParseManifest(data)
}

// ParseManifest extracts version to URL bindings from manifest content.
// Lines without a recognizable version or URL are skipped; a later line for
// the same version replaces an earlier one. The returned map is keyed by
// Version.Canonical.
func ParseManifest(data []byte) (map[string]string, *version.Set, error) {
	urls := make(map[string]string)
	set := version.NewSet()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64<<10), maxManifestSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			log.Debugf("skipping manifest line without url: %q", line)
			continue
		}
		// the url is everything after the first run of whitespace
		rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

		v, ok := version.Extract(fields[0])
		if !ok {
			log.Debugf("skipping manifest line without version: %q", line)
			continue
		}
		set.Add(v)
		urls[v.Canonical()] = rest
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("parse manifest: %w", err)
	}
	return urls, set, nil
}

func (m *Manifest) ListVersions(ctx context.Context) (*version.Set, error) {
	_, set, err := m.entries(ctx)
	return set, err
}

func (m *Manifest) Download(ctx context.Context, v version.Version, destPath string, reporter progress.Reporter) error {
	urls, _, err := m.entries(ctx)
	if err != nil {
		return err
	}
	url, ok := urls[v.Canonical()]
	if !ok {
		return notFound(v)
	}
	return downloadToFile(ctx, m.client, url, nil, destPath, reporter)
}
