package engine

import (
	"context"

	"github.com/spf13/afero"
)

// Archiver bundles files into a single archive file.
type Archiver interface {
	// Kind names the archive format (e.g. "zip", "tar").
	Kind() string

	// Extension returns the file extension for this archive type (e.g. ".tar.gz").
	Extension() string

	// Archive writes files to target, one entry per file named by its base
	// name, in the given order. An existing target is replaced.
	Archive(ctx context.Context, fs afero.Fs, files []string, target string) error
}
