// Package fsutil contains small filesystem helpers shared by the runner
// and the job stores.
package fsutil

import (
	"os"
	"path/filepath"
)

// EnsureDir ensures a directory exists.
func EnsureDir(p string) error {
	return os.MkdirAll(p, 0755)
}

// EnsurePath ensures the parent directory of the given file path exists.
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}

// Exists reports whether something exists at the given path.
func Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ReadFileBestEffort returns the contents of the file at p, or an empty
// string if it can't be read.
func ReadFileBestEffort(p string) string {
	b, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	return string(b)
}
