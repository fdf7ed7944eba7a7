package fsutil

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// RemoveRecursive deletes dir and everything beneath it. Entries are removed
// depth-first, every child before its parent, and dir itself last.
//
// The first listing or removal failure aborts the walk and is returned, so a
// failed call can leave part of the tree behind. Symlinks are removed as links
// and never followed, but nothing guards against a filesystem that reports a
// directory cycle.
func RemoveRecursive(fs afero.Fs, dir string) error {
	info, err := fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to remove %s: %w", dir, ErrNotDirectory)
	}

	return removeTree(fs, dir)
}

func removeTree(fs afero.Fs, dir string) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := removeTree(fs, child); err != nil {
				return err
			}
			continue
		}

		if err := fs.Remove(child); err != nil {
			return fmt.Errorf("failed to remove %s: %w", child, err)
		}
	}

	if err := fs.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}

	return nil
}
