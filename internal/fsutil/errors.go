// Package fsutil provides the filesystem helpers used by the bundle pipeline:
// recursive deletion and zip archive creation on top of an afero.Fs.
//
// All helpers take the filesystem explicitly so callers can run them against
// the OS filesystem in production and an in-memory filesystem in tests.
package fsutil

import "errors"

var (
	// ErrNotDirectory is returned when a directory was expected.
	ErrNotDirectory = errors.New("expected directory but got file")
)
