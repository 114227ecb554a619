// Package lockfile provides an exclusive, handle scoped lock on a file. The
// lock lives as long as the open handle: closing it, or the death of the
// owning process, releases it. The file content is never inspected.
package lockfile

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Lock is a held lock file.
type Lock struct {
	file *os.File
}

// TryAcquire attempts to take the lock at path without blocking. It returns
// (nil, nil) when someone else holds the lock, so callers check the result
// instead of matching errors. A non-nil error means the lock file itself
// could not be opened.
func TryAcquire(path string) (*Lock, error) {
	f, held, err := tryLock(path)
	if err != nil {
		return nil, err
	}
	if !held {
		log.Debugf("lock %s is held by another owner", path)
		return nil, nil
	}
	return &Lock{file: f}, nil
}

// Path returns the path of the locked file.
func (l *Lock) Path() string {
	return l.file.Name()
}

// Release closes the underlying handle, which drops the lock. Calling it
// more than once is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlock(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
