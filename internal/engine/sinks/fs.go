package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
)

const partialSuffix = ".partial"

// FilesystemSink publishes archives into a directory. An archive is copied to
// a ".partial" file first and renamed into place once complete, so readers of
// the output directory never see a truncated archive.
type FilesystemSink struct {
	fs afero.Fs
}

func NewFilesystemSink(fs afero.Fs) engine.Sink {
	return &FilesystemSink{fs: fs}
}

// NewFilesystemSinkFromPath publishes into dir on base. dir is created if missing.
func NewFilesystemSinkFromPath(base afero.Fs, dir string) (engine.Sink, error) {
	dir = filepath.Clean(dir)
	if err := base.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare archive directory %s: %w", dir, err)
	}
	return NewFilesystemSink(afero.NewBasePathFs(base, dir)), nil
}

func (s *FilesystemSink) Name() string {
	return "filesystem(" + s.fs.Name() + ")"
}

func (s *FilesystemSink) Kind() string {
	return "filesystem"
}

// Write publishes archive as name, replacing an older archive of the same name.
func (s *FilesystemSink) Write(ctx context.Context, name string, archive io.Reader) error {
	if parent := filepath.Dir(name); parent != "." {
		if err := s.fs.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("failed to prepare archive directory %s: %w", parent, err)
		}
	}

	partial := name + partialSuffix
	if err := s.copyTo(partial, archive); err != nil {
		return errors.Join(err, s.discard(partial))
	}
	if err := s.fs.Rename(partial, name); err != nil {
		return errors.Join(fmt.Errorf("failed to move archive into place as %s: %w", name, err), s.discard(partial))
	}
	return nil
}

func (s *FilesystemSink) copyTo(name string, archive io.Reader) (err error) {
	f, err := s.fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if _, err := io.Copy(f, archive); err != nil {
		return fmt.Errorf("failed to copy archive into %s: %w", name, err)
	}
	return nil
}

func (s *FilesystemSink) discard(name string) error {
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return fmt.Errorf("failed to discard %s: %w", name, err)
	}
	return nil
}

func (s *FilesystemSink) Close(ctx context.Context) error {
	return nil
}
