package updater

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultHandler_WriteRead(t *testing.T) {
	rh := NewResultHandler(t.TempDir())

	_, err := rh.Read()
	assert.Error(t, err)

	want := Result{Success: false, Error: "boom", Version: "1.2", ExecutedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, rh.Write(want))

	got, err := rh.Read()
	require.NoError(t, err)
	assert.Equal(t, want.Error, got.Error)
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.ExecutedAt.Equal(got.ExecutedAt))

	require.NoError(t, rh.Cleanup())
	require.NoError(t, rh.Cleanup())
	_, err = rh.Read()
	assert.Error(t, err)
}

func TestResultHandler_Watch(t *testing.T) {
	rh := NewResultHandler(t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan Result, 1)
	errs := make(chan error, 1)
	go func() {
		result, err := rh.Watch(ctx)
		if err != nil {
			errs <- err
			return
		}
		done <- result
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, rh.Write(Result{Success: true, Version: "2.0"}))

	select {
	case result := <-done:
		assert.True(t, result.Success)
		assert.Equal(t, "2.0", result.Version)
	case err := <-errs:
		t.Fatalf("watch failed: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for result")
	}
}

func TestResultHandler_WatchCancelled(t *testing.T) {
	rh := NewResultHandler(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rh.Watch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
