package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/selfupdate/version"
)

func TestAggregate_DisjointLocalSources(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	writePackages(t, dirA, "1.0.onv", "3.0.onv")
	writePackages(t, dirB, "2.0.onv")

	a, err := NewLocal(dirA, "")
	require.NoError(t, err)
	b, err := NewLocal(dirB, "")
	require.NoError(t, err)
	agg := NewAggregate(a, b)

	set, err := agg.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0", "3.0"}, versionStrings(set))

	for _, v := range []string{"1.0", "2.0", "3.0"} {
		dest := filepath.Join(t.TempDir(), "pkg")
		require.NoError(t, agg.Download(context.Background(), version.MustParse(v), dest, nil))
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "package "+v+".onv", string(data))
	}

	err = agg.Download(context.Background(), version.MustParse("4.0"), filepath.Join(t.TempDir(), "pkg"), nil)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestAggregate_FirstSourceWins(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	writePackages(t, dirA, "1.0.onv")
	require.NoError(t, os.MkdirAll(dirB, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "1.0.onv"), []byte("from b"), 0o644))

	a, err := NewLocal(dirA, "")
	require.NoError(t, err)
	b, err := NewLocal(dirB, "")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "pkg")
	require.NoError(t, NewAggregate(a, b).Download(context.Background(), version.MustParse("1.0"), dest, nil))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "package 1.0.onv", string(data))
}

func TestAggregate_Empty(t *testing.T) {
	set, err := NewAggregate().ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}
