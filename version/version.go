package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const maxSegments = 4

var ErrInvalidVersion = errors.New("invalid version")

// Version is a dotted numeric version of two to four components
// (major.minor[.build[.revision]]). Missing trailing components are treated
// as zero when comparing, so 1.0 and 1.0.0 are equal, but String keeps the
// number of components that was parsed.
type Version struct {
	segments [maxSegments]int
	count    int
}

// New builds a version from explicit components.
func New(segments ...int) (Version, error) {
	if len(segments) < 2 || len(segments) > maxSegments {
		return Version{}, fmt.Errorf("%w: expected 2 to %d components, got %d", ErrInvalidVersion, maxSegments, len(segments))
	}

	var v Version
	for i, s := range segments {
		if s < 0 {
			return Version{}, fmt.Errorf("%w: negative component %d", ErrInvalidVersion, s)
		}
		v.segments[i] = s
	}
	v.count = len(segments)
	return v, nil
}

// Parse parses a dotted numeric version string such as "1.2" or "1.2.3.4".
func Parse(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > maxSegments {
		return Version{}, fmt.Errorf("%w %q: expected 2 to %d components", ErrInvalidVersion, s, maxSegments)
	}

	segments := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, "+-") {
			return Version{}, fmt.Errorf("%w %q: malformed component %q", ErrInvalidVersion, s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w %q: %v", ErrInvalidVersion, s, err)
		}
		segments = append(segments, n)
	}

	return New(segments...)
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) Major() int    { return v.segments[0] }
func (v Version) Minor() int    { return v.segments[1] }
func (v Version) Build() int    { return v.segments[2] }
func (v Version) Revision() int { return v.segments[3] }

// IsZero reports whether v is the zero value, i.e. was never parsed.
func (v Version) IsZero() bool {
	return v.count == 0
}

// Compare returns -1, 0 or 1 when v is lower than, equal to or greater than o.
func (v Version) Compare(o Version) int {
	for i := 0; i < maxSegments; i++ {
		switch {
		case v.segments[i] < o.segments[i]:
			return -1
		case v.segments[i] > o.segments[i]:
			return 1
		}
	}
	return 0
}

func (v Version) Equal(o Version) bool       { return v.Compare(o) == 0 }
func (v Version) LessThan(o Version) bool    { return v.Compare(o) < 0 }
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// Compare is the package level form of Version.Compare, handy for slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}

func (v Version) String() string {
	count := v.count
	if count == 0 {
		count = 2
	}

	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = strconv.Itoa(v.segments[i])
	}
	return strings.Join(parts, ".")
}

// Canonical returns the four component spelling of v. Versions that compare
// equal share the same canonical form.
func (v Version) Canonical() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.segments[0], v.segments[1], v.segments[2], v.segments[3])
}

// key is the normalized form used for set membership.
func (v Version) key() [maxSegments]int {
	return v.segments
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
