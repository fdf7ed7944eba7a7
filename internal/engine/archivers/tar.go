package archivers

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
)

const KindTar = "tar"

// CompressionType defines supported compression algorithms.
type CompressionType string

const (
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
	CompressionNone CompressionType = "none"
)

// TarArchiver creates tar archives with optional compression. Entries follow
// the same rules as zip archives: base names, input order, no de-duplication.
type TarArchiver struct {
	compression CompressionType
}

// NewTarArchiver creates a new tar archiver with the specified compression.
// Supported compression types: "gzip", "zstd", "none".
// If compression is empty, defaults to "gzip".
func NewTarArchiver(compression string) (engine.Archiver, error) {
	ct := CompressionType(compression)
	if ct == "" {
		ct = CompressionGzip
	}

	switch ct {
	case CompressionGzip, CompressionZstd, CompressionNone:
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", compression)
	}

	return &TarArchiver{compression: ct}, nil
}

func (a *TarArchiver) Kind() string {
	return KindTar
}

// Extension returns the file extension for this archive type.
func (a *TarArchiver) Extension() string {
	switch a.compression {
	case CompressionGzip:
		return ".tar.gz"
	case CompressionZstd:
		return ".tar.zst"
	default:
		return ".tar"
	}
}

// Archive writes files into a tar archive at target. Like the zip writer it
// replaces an existing target and leaves a partial file behind on failure.
func (a *TarArchiver) Archive(ctx context.Context, afs afero.Fs, files []string, target string) (err error) {
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

	compressor, err := a.compressor(out)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := compressor.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close compressor: %w", closeErr))
		}
	}()

	tw := tar.NewWriter(compressor)
	defer func() {
		if closeErr := tw.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close tar writer: %w", closeErr))
		}
	}()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		if err := addTarEntry(afs, tw, file); err != nil {
			return err
		}
	}

	return nil
}

func (a *TarArchiver) compressor(w io.Writer) (io.WriteCloser, error) {
	switch a.compression {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	default:
		return &nopWriteCloser{w}, nil
	}
}

func addTarEntry(afs afero.Fs, tw *tar.Writer, path string) error {
	src, err := afs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to add %s: expected file, got directory", path)
	}

	header := &tar.Header{
		Name:    filepath.Base(path),
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}

	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("failed to write tar content: %w", err)
	}

	return nil
}

// nopWriteCloser wraps a Writer to provide a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (n *nopWriteCloser) Close() error {
	return nil
}
