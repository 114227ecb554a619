package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

const (
	DefaultGitHubAPI = "https://api.github.com"
	maxReleasesSize  = 16 << 20
)

type githubRelease struct {
	Name       string        `json:"name"`
	TagName    string        `json:"tag_name"`
	Prerelease bool          `json:"prerelease"`
	Assets     []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	URL                string `json:"url"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// GitHub resolves packages from the releases of a GitHub repository. The
// version comes from the release name; the first asset matching the pattern
// is the artifact. Prereleases are ignored.
type GitHub struct {
	apiURL  string
	owner   string
	repo    string
	pattern glob.Glob
	token   string
	client  *http.Client
}

type GitHubOption func(*GitHub)

// WithGitHubAPI points the source at another API root, e.g. GitHub Enterprise.
func WithGitHubAPI(apiURL string) GitHubOption {
	return func(g *GitHub) {
		g.apiURL = strings.TrimSuffix(apiURL, "/")
	}
}

// WithGitHubToken authenticates requests, raising rate limits and allowing
// private repositories.
func WithGitHubToken(token string) GitHubOption {
	return func(g *GitHub) {
		g.token = token
	}
}

func NewGitHub(owner, repo, assetPattern string, client *http.Client, opts ...GitHubOption) (*GitHub, error) {
	g, err := glob.Compile(assetPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid asset pattern %q: %w", assetPattern, err)
	}

	gh := &GitHub{
		apiURL:  DefaultGitHubAPI,
		owner:   owner,
		repo:    repo,
		pattern: g,
		client:  client,
	}
	for _, opt := range opts {
		opt(gh)
	}
	return gh, nil
}

func (g *GitHub) header(accept string) http.Header {
	h := http.Header{}
	h.Set("Accept", accept)
	if g.token != "" {
		h.Set("Authorization", "Bearer "+g.token)
	}
	return h
}

func (g *GitHub) assets(ctx context.Context) (map[string]githubAsset, *version.Set, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", g.apiURL, g.owner, g.repo)
	data, err := downloadToMemory(ctx, g.client, url, g.header("application/vnd.github+json"), maxReleasesSize)
	if err != nil {
		return nil, nil, err
	}

	var releases []githubRelease
	if err := json.Unmarshal(data, &releases); err != nil {
		return nil, nil, fmt.Errorf("decode releases: %w", err)
	}

	assets := make(map[string]githubAsset)
	set := version.NewSet()
	for _, r := range releases {
		if r.Prerelease {
			continue
		}

		v, ok := version.Extract(r.Name)
		if !ok {
			log.Debugf("skipping release %q: no version in name", r.Name)
			continue
		}

		for _, a := range r.Assets {
			if !g.pattern.Match(a.Name) {
				continue
			}
			set.Add(v)
			assets[v.Canonical()] = a
			break
		}
	}
	return assets, set, nil
}

func (g *GitHub) ListVersions(ctx context.Context) (*version.Set, error) {
	_, set, err := g.assets(ctx)
	return set, err
}

func (g *GitHub) Download(ctx context.Context, v version.Version, destPath string, reporter progress.Reporter) error {
	assets, _, err := g.assets(ctx)
	if err != nil {
		return err
	}
	a, ok := assets[v.Canonical()]
	if !ok {
		return notFound(v)
	}

	// the API asset url honours the token for private repositories
	if g.token != "" && a.URL != "" {
		return downloadToFile(ctx, g.client, a.URL, g.header("application/octet-stream"), destPath, reporter)
	}
	return downloadToFile(ctx, g.client, a.BrowserDownloadURL, nil, destPath, reporter)
}
