package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

const (
	DefaultFeedIndex        = "https://api.nuget.org/v3/index.json"
	packageBaseAddressType  = "PackageBaseAddress/3.0.0"
	maxServiceIndexSize     = 4 << 20
	maxPackageIndexSize     = 16 << 20
	defaultFeedArtifactType = "nupkg"
)

// Feed resolves packages from a NuGet v3 compatible feed. The package base
// address is discovered from the service index on every call.
type Feed struct {
	serviceIndex string
	packageID    string
	client       *http.Client
}

func NewFeed(serviceIndexURL, packageID string, client *http.Client) *Feed {
	if serviceIndexURL == "" {
		serviceIndexURL = DefaultFeedIndex
	}
	return &Feed{
		serviceIndex: serviceIndexURL,
		packageID:    strings.ToLower(packageID),
		client:       client,
	}
}

func (f *Feed) baseAddress(ctx context.Context) (string, error) {
	data, err := downloadToMemory(ctx, f.client, f.serviceIndex, nil, maxServiceIndexSize)
	if err != nil {
		return "", fmt.Errorf("fetch service index: %w", err)
	}

	base, ok := findResource(data, packageBaseAddressType)
	if !ok {
		return "", fmt.Errorf("service index %s has no %s resource", f.serviceIndex, packageBaseAddressType)
	}
	return strings.TrimSuffix(base, "/"), nil
}

// findResource returns the @id of the first resource whose @type starts with
// resourceType. Types may carry a suffix such as "/3.0.0-beta".
func findResource(serviceIndex []byte, resourceType string) (string, bool) {
	var id string
	gjson.GetBytes(serviceIndex, "resources").ForEach(func(_, resource gjson.Result) bool {
		var typ, rid string
		resource.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "@type":
				typ = value.String()
			case "@id":
				rid = value.String()
			}
			return true
		})
		if strings.HasPrefix(typ, resourceType) && rid != "" {
			id = rid
			return false
		}
		return true
	})
	return id, id != ""
}

// versions maps canonical versions to the spelling used by the feed.
func (f *Feed) versions(ctx context.Context, base string) (map[string]string, *version.Set, error) {
	url := fmt.Sprintf("%s/%s/index.json", base, f.packageID)
	data, err := downloadToMemory(ctx, f.client, url, nil, maxPackageIndexSize)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return map[string]string{}, version.NewSet(), nil
		}
		return nil, nil, fmt.Errorf("fetch package index: %w", err)
	}

	var index struct {
		Versions []string `json:"versions"`
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, nil, fmt.Errorf("decode package index: %w", err)
	}

	spelled := make(map[string]string, len(index.Versions))
	set := version.NewSet()
	for _, raw := range index.Versions {
		v, err := version.ParseSemver(raw)
		if err != nil {
			log.Debugf("skipping feed version %q: %v", raw, err)
			continue
		}
		set.Add(v)
		spelled[v.Canonical()] = raw
	}
	return spelled, set, nil
}

func (f *Feed) ListVersions(ctx context.Context) (*version.Set, error) {
	base, err := f.baseAddress(ctx)
	if err != nil {
		return nil, err
	}
	_, set, err := f.versions(ctx, base)
	return set, err
}

// ArtifactURL builds the download location of a package version below a
// package base address.
func ArtifactURL(base, packageID, ver string) string {
	id := strings.ToLower(packageID)
	ver = strings.ToLower(ver)
	return fmt.Sprintf("%s/%s/%s/%s.%s.%s", strings.TrimSuffix(base, "/"), id, ver, id, ver, defaultFeedArtifactType)
}

func (f *Feed) Download(ctx context.Context, v version.Version, destPath string, reporter progress.Reporter) error {
	base, err := f.baseAddress(ctx)
	if err != nil {
		return err
	}

	spelled, _, err := f.versions(ctx, base)
	if err != nil {
		return err
	}
	raw, ok := spelled[v.Canonical()]
	if !ok {
		return notFound(v)
	}

	err = downloadToFile(ctx, f.client, ArtifactURL(base, f.packageID, raw), nil, destPath, reporter)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return notFound(v)
	}
	return err
}
