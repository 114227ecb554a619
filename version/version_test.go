package version

import (
	"testing"

	goversion "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{"1.0", "1.2.3", "1.2.3.4", "0.0", "10.20.30.40"} {
		v, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, v.String())

		again, err := Parse(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, again)
	}
}

func TestParse_Normalizes(t *testing.T) {
	v, err := Parse(" 01.002 ")
	require.NoError(t, err)
	assert.Equal(t, "1.2", v.String())
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{"", "1", "1.2.3.4.5", "1.-2", "1.a", "1..2", "v1.2", "1.+2", "1.2-beta"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidVersion, s)
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	ordered := []Version{MustParse("1.0"), MustParse("1.0.1"), MustParse("1.1"), MustParse("2.0")}
	for i := range ordered {
		for j := range ordered {
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			assert.Equal(t, want, ordered[i].Compare(ordered[j]), "%s vs %s", ordered[i], ordered[j])
		}
	}
}

func TestCompare_MissingComponentsAreZero(t *testing.T) {
	assert.True(t, MustParse("1.0").Equal(MustParse("1.0.0.0")))
	assert.True(t, MustParse("1.2").LessThan(MustParse("1.2.0.1")))
	assert.True(t, MustParse("3.0").GreaterThan(MustParse("2.9.9.9")))
}

func TestSet(t *testing.T) {
	s := NewSet(MustParse("3.0"), MustParse("1.0"), MustParse("2.0"))
	s.Add(MustParse("1.0.0"))

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(MustParse("1.0.0.0")))
	assert.False(t, s.Contains(MustParse("4.0")))

	highest, ok := s.Max()
	require.True(t, ok)
	assert.Equal(t, "3.0", highest.String())

	sorted := s.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "2.0", sorted[1].String())

	other := NewSet(MustParse("4.0"))
	s.Union(other)
	assert.Equal(t, 4, s.Len())

	_, ok = NewSet().Max()
	assert.False(t, ok)

	var nilSet *Set
	assert.False(t, nilSet.Contains(MustParse("1.0")))
	assert.Equal(t, 0, nilSet.Len())
}

func TestExtract(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "MyApp-v1.2.3-win-x64", want: "1.2.3", ok: true},
		{in: "Release 2.0", want: "2.0", ok: true},
		{in: "build 7", ok: false},
		{in: "1.2.3.4.5", want: "1.2.3.4", ok: true},
		{in: "nothing here", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := Extract(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, v.String())
			}
		})
	}
}

func TestFromSemver(t *testing.T) {
	v, err := FromSemver(goversion.Must(goversion.NewVersion("v1.4.2")))
	require.NoError(t, err)
	assert.True(t, v.Equal(MustParse("1.4.2")))

	_, err = ParseSemver("2.0.0-beta.1")
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = ParseSemver("not a version")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestTextMarshaling(t *testing.T) {
	var v Version
	require.NoError(t, v.UnmarshalText([]byte("1.2.3")))
	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", string(text))
}
