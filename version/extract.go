package version

import (
	"fmt"
	"regexp"

	goversion "github.com/hashicorp/go-version"
)

var embeddedVersion = regexp.MustCompile(`\d+(?:\.\d+){1,3}`)

// Extract finds the first dotted numeric version of two to four components
// inside s, e.g. "MyApp-v1.2.3-win-x64" yields 1.2.3.
func Extract(s string) (Version, bool) {
	match := embeddedVersion.FindString(s)
	if match == "" {
		return Version{}, false
	}
	v, err := Parse(match)
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// FromSemver converts a semver-shaped catalog version into a Version.
// Prereleases are refused since they never take part in update decisions.
func FromSemver(sv *goversion.Version) (Version, error) {
	if sv.Prerelease() != "" {
		return Version{}, fmt.Errorf("%w %q: prerelease", ErrInvalidVersion, sv.Original())
	}

	segments := sv.Segments()
	if len(segments) > maxSegments {
		segments = segments[:maxSegments]
	}
	return New(segments...)
}

// ParseSemver parses a catalog version string (leading "v", prerelease and
// build metadata allowed by the grammar) and converts it with FromSemver.
func ParseSemver(s string) (Version, error) {
	sv, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w %q: %v", ErrInvalidVersion, s, err)
	}
	return FromSemver(sv)
}
