package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// ZipTo writes a zip archive to target containing one entry per file, in the
// order given. Entries are named by the base name of their source, so two
// sources sharing a base name produce two entries with the same name.
//
// Any existing file at target is removed first. The archive is written in
// place: if a source cannot be read the target is left partially written.
func ZipTo(afs afero.Fs, files []string, target string) (err error) {
	if err := afs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove existing archive %s: %w", target, err)
	}

	out, err := afs.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", target, err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	zw := zip.NewWriter(out)
	defer func() {
		err = errors.Join(err, zw.Close())
	}()

	for _, file := range files {
		if err := addZipEntry(afs, zw, file); err != nil {
			return err
		}
	}

	return nil
}

func addZipEntry(afs afero.Fs, zw *zip.Writer, path string) error {
	src, err := afs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:   filepath.Base(path),
		Method: zip.Deflate,
	}
	if info, statErr := src.Stat(); statErr == nil {
		header.Modified = info.ModTime()
	}

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", header.Name, err)
	}

	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", path, err)
	}

	return nil
}
