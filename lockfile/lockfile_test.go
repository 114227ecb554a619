package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquire_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Onova.lock")

	first, err := TryAcquire(path)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, path, first.Path())

	second, err := TryAcquire(path)
	require.NoError(t, err)
	assert.Nil(t, second, "second holder must not get the lock while the first holds it")

	require.NoError(t, first.Release())

	third, err := TryAcquire(path)
	require.NoError(t, err)
	require.NotNil(t, third)
	require.NoError(t, third.Release())
}

func TestRelease_Idempotent(t *testing.T) {
	l, err := TryAcquire(filepath.Join(t.TempDir(), "a.lock"))
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.NoError(t, l.Release())
	assert.NoError(t, l.Release())

	var nilLock *Lock
	assert.NoError(t, nilLock.Release())
}

func TestTryAcquire_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "a.lock")
	l, err := TryAcquire(path)
	assert.Error(t, err)
	assert.Nil(t, l)

	_, statErr := os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr))
}
