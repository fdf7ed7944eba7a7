package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
)

const FileSourceKind = "file"

type FileSourceConfig struct {
	Path string
}

// NewFileSource adds an existing file. Relative paths are resolved against
// the working directory at construction time.
func NewFileSource(name string, cfg FileSourceConfig) (engine.Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	path := cfg.Path
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	return engine.SourceFunction(name, FileSourceKind, func(ctx context.Context, fs afero.Fs, _ string) (engine.Artifact, error) {
		info, err := fs.Stat(path)
		if err != nil {
			return engine.Artifact{}, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return engine.Artifact{}, fmt.Errorf("failed to add %s: %w", path, ErrExpectedFile)
		}

		return engine.Artifact{Path: path}, nil
	}), nil
}
