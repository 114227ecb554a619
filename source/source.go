// Package source resolves application versions to downloadable package
// artifacts. Every implementation maps one version to exactly one opaque
// artifact file.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

var ErrPackageNotFound = errors.New("package not found")

// Source lists the versions it can currently resolve and downloads the
// artifact of one of them.
type Source interface {
	// ListVersions returns every version resolvable right now. Finding no
	// packages is not an error; the returned set is empty instead.
	ListVersions(ctx context.Context) (*version.Set, error)

	// Download streams the artifact for v into destPath, overwriting it. It
	// fails with ErrPackageNotFound when v is not resolvable. Progress is
	// reported only when the artifact size is known up front.
	Download(ctx context.Context, v version.Version, destPath string, reporter progress.Reporter) error
}

// DefaultHTTPClient is used by HTTP based sources constructed with a nil
// client. Composition roots may replace it before building sources.
var DefaultHTTPClient = &http.Client{Timeout: 10 * time.Minute}

// UserAgent is sent with every request issued by this package.
var UserAgent = "selfupdate/1.0"

func notFound(v version.Version) error {
	return fmt.Errorf("%w: version %s", ErrPackageNotFound, v)
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return DefaultHTTPClient
}
