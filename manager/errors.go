package manager

import (
	"errors"
	"fmt"

	"github.com/netbirdio/selfupdate/source"
	"github.com/netbirdio/selfupdate/version"
)

var (
	// ErrPackageNotFound is returned when the source has no package for the
	// requested version.
	ErrPackageNotFound = source.ErrPackageNotFound

	// ErrLockNotAcquired is returned when another process owns the storage area.
	ErrLockNotAcquired = errors.New("could not acquire the update lock, another instance owns it")

	// ErrUpdaterAlreadyLaunched is returned while the staged updater still
	// appears to be running. The check is a write-access probe on the staged
	// executable and may report false negatives for a crashed updater.
	ErrUpdaterAlreadyLaunched = errors.New("updater has already been launched")

	ErrUpdateNotPrepared = errors.New("update has not been prepared")

	ErrDisposed = errors.New("update manager has been closed")
)

// UpdateNotPreparedError names the version that LaunchUpdater was called
// for. It matches ErrUpdateNotPrepared with errors.Is.
type UpdateNotPreparedError struct {
	Version version.Version
}

func (e *UpdateNotPreparedError) Error() string {
	return fmt.Sprintf("update to version %s has not been prepared", e.Version)
}

func (e *UpdateNotPreparedError) Is(target error) bool {
	return target == ErrUpdateNotPrepared
}
