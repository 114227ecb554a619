package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

func serveFiles(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.ReplaceAll(body, "{{server}}", server.URL)
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParseManifest(t *testing.T) {
	content := "MyApp-1.0 http://example.com/1.0.zip\n" +
		"\n" +
		"   \n" +
		"v2.0\t\t http://example.com/2.0.zip\n" +
		"no-version http://example.com/x.zip\n" +
		"3.0\n" +
		"MyApp-1.0.0 http://example.com/1.0-fixed.zip\n"

	urls, set, err := ParseManifest([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "2.0"}, versionStrings(set))
	assert.Equal(t, "http://example.com/1.0-fixed.zip", urls[version.MustParse("1.0").Canonical()])
	assert.Equal(t, "http://example.com/2.0.zip", urls[version.MustParse("2.0").Canonical()])
}

func TestParseManifest_LongLine(t *testing.T) {
	long := "app-1.0 https://example.com/1.0.zip?" + strings.Repeat("a", 70000) + "\n" +
		"app-2.0 https://example.com/2.0.zip\n"

	urls, set, err := ParseManifest([]byte(long))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0"}, versionStrings(set))
	assert.Len(t, urls[version.MustParse("1.0").Canonical()], len("https://example.com/1.0.zip?")+70000)

	tooLong := "app-1.0 https://example.com/" + strings.Repeat("a", maxManifestSize+1) + "\n"
	_, _, err = ParseManifest([]byte(tooLong))
	assert.Error(t, err)
}

func TestDownloadToMemory_RejectsOversizedBody(t *testing.T) {
	server := serveFiles(t, map[string]string{
		"/small.txt": "12345",
		"/large.txt": "123456",
	})

	data, err := downloadToMemory(context.Background(), server.Client(), server.URL+"/small.txt", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = downloadToMemory(context.Background(), server.Client(), server.URL+"/large.txt", nil, 5)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestManifest_ListAndDownload(t *testing.T) {
	server := serveFiles(t, map[string]string{
		"/manifest.txt": "1.0 {{server}}/pkg/1.0.onv\n2.0 {{server}}/pkg/2.0.onv\n3.0 {{server}}/pkg/missing.onv\n",
		"/pkg/1.0.onv":  "one",
		"/pkg/2.0.onv":  "two",
	})

	src := NewManifest(server.URL+"/manifest.txt", server.Client())
	set, err := src.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0", "3.0"}, versionStrings(set))

	dest := filepath.Join(t.TempDir(), "artifact")
	var reports []float64
	err = src.Download(context.Background(), version.MustParse("2.0"), dest, progress.ReporterFunc(func(f float64) {
		reports = append(reports, f)
	}))
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	require.NotEmpty(t, reports)
	assert.InDelta(t, 1.0, reports[len(reports)-1], 1e-9)

	err = src.Download(context.Background(), version.MustParse("4.0"), dest, nil)
	assert.ErrorIs(t, err, ErrPackageNotFound)

	var se *StatusError
	err = src.Download(context.Background(), version.MustParse("3.0"), dest, nil)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestManifest_ServerError(t *testing.T) {
	src := NewManifest(serveFiles(t, nil).URL+"/missing", nil)
	_, err := src.ListVersions(context.Background())
	assert.Error(t, err)
}

const releasesJSON = `[
  {"name": "MyApp v3.0 beta", "prerelease": true,
   "assets": [{"name": "app-3.0.zip", "browser_download_url": "{{server}}/dl/app-3.0.zip"}]},
  {"name": "MyApp v2.0", "prerelease": false,
   "assets": [
     {"name": "notes.txt", "browser_download_url": "{{server}}/dl/notes.txt"},
     {"name": "app-2.0.zip", "browser_download_url": "{{server}}/dl/app-2.0.zip"},
     {"name": "app-2.0-extra.zip", "browser_download_url": "{{server}}/dl/extra.zip"}
   ]},
  {"name": "Unnamed", "prerelease": false,
   "assets": [{"name": "app.zip", "browser_download_url": "{{server}}/dl/app.zip"}]},
  {"name": "1.0", "prerelease": false,
   "assets": [{"name": "app-1.0.zip", "browser_download_url": "{{server}}/dl/app-1.0.zip"}]},
  {"name": "1.5", "prerelease": false,
   "assets": [{"name": "readme.md", "browser_download_url": "{{server}}/dl/readme.md"}]}
]`

func TestGitHub_ListAndDownload(t *testing.T) {
	server := serveFiles(t, map[string]string{
		"/repos/acme/app/releases": releasesJSON,
		"/dl/app-2.0.zip":          "v2 archive",
		"/dl/app-1.0.zip":          "v1 archive",
	})

	src, err := NewGitHub("acme", "app", "*.zip", server.Client(), WithGitHubAPI(server.URL+"/"))
	require.NoError(t, err)

	set, err := src.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0"}, versionStrings(set))

	dest := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, src.Download(context.Background(), version.MustParse("2.0"), dest, nil))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "v2 archive", string(data))

	err = src.Download(context.Background(), version.MustParse("3.0"), dest, nil)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestGitHub_SendsToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	src, err := NewGitHub("acme", "app", "*", nil, WithGitHubAPI(server.URL), WithGitHubToken("secret"))
	require.NoError(t, err)

	set, err := src.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, "Bearer secret", auth)
}

const serviceIndexJSON = `{
  "version": "3.0.0",
  "resources": [
    {"@id": "{{server}}/query", "@type": "SearchQueryService"},
    {"@id": "{{server}}/flat/", "@type": "PackageBaseAddress/3.0.0"}
  ]
}`

func TestFeed_ListAndDownload(t *testing.T) {
	server := serveFiles(t, map[string]string{
		"/index.json":                         serviceIndexJSON,
		"/flat/myapp/index.json":              `{"versions": ["1.0.0", "2.0.0-beta", "2.0.0", "3.0.0"]}`,
		"/flat/myapp/2.0.0/myapp.2.0.0.nupkg": "nupkg v2",
	})

	src := NewFeed(server.URL+"/index.json", "MyApp", server.Client())
	set, err := src.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "2.0.0", "3.0.0"}, versionStrings(set))

	dest := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, src.Download(context.Background(), version.MustParse("2.0"), dest, nil))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "nupkg v2", string(data))

	// listed but artifact missing
	err = src.Download(context.Background(), version.MustParse("3.0"), dest, nil)
	assert.ErrorIs(t, err, ErrPackageNotFound)

	err = src.Download(context.Background(), version.MustParse("5.0"), dest, nil)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestFeed_UnknownPackageIsEmpty(t *testing.T) {
	server := serveFiles(t, map[string]string{"/index.json": serviceIndexJSON})

	set, err := NewFeed(server.URL+"/index.json", "Nope", nil).ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestFeed_MissingResource(t *testing.T) {
	server := serveFiles(t, map[string]string{"/index.json": `{"resources": []}`})

	_, err := NewFeed(server.URL+"/index.json", "MyApp", nil).ListVersions(context.Background())
	assert.Error(t, err)
}

func TestArtifactURL(t *testing.T) {
	assert.Equal(t, "https://feed/flat/myapp/1.2.3/myapp.1.2.3.nupkg", ArtifactURL("https://feed/flat/", "MyApp", "1.2.3"))
}
