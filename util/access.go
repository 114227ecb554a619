package util

import (
	"os"
)

// CanOpenForWrite reports whether path can currently be opened for writing.
// A missing file counts as writable. The file is neither truncated nor
// modified.
//
// Running executables refuse write access (ETXTBSY on Linux, a sharing
// violation on Windows), which makes this usable as a crude "is the program
// still running" probe.
func CanOpenForWrite(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return os.IsNotExist(err)
	}
	_ = f.Close()
	return true
}

// IsDirWritable reports whether the current user can create files in dir.
func IsDirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
