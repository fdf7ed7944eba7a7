package archivers

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
	"github.com/pkgtool/pkgtool/internal/fsutil"
)

const KindZip = "zip"

// ZipArchiver writes zip archives with Deflate compression.
type ZipArchiver struct{}

func NewZipArchiver() engine.Archiver {
	return &ZipArchiver{}
}

func (a *ZipArchiver) Kind() string {
	return KindZip
}

func (a *ZipArchiver) Extension() string {
	return ".zip"
}

// Archive checks ctx once before writing. ZipTo itself is not interruptible.
func (a *ZipArchiver) Archive(ctx context.Context, fs afero.Fs, files []string, target string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	if err := fsutil.ZipTo(fs, files, target); err != nil {
		return fmt.Errorf("failed to write zip archive: %w", err)
	}

	return nil
}
