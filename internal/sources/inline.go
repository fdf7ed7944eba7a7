package sources

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
)

const InlineSourceKind = "inline"

type InlineSourceConfig struct {
	Name    string
	Content string
}

// NewInlineSource writes literal content to a file named cfg.Name in the run directory.
func NewInlineSource(name string, cfg InlineSourceConfig) (engine.Source, error) {
	if err := validateFileName(cfg.Name); err != nil {
		return nil, err
	}

	return engine.SourceFunction(name, InlineSourceKind, func(ctx context.Context, fs afero.Fs, dir string) (engine.Artifact, error) {
		path := filepath.Join(dir, cfg.Name)
		if err := afero.WriteFile(fs, path, []byte(cfg.Content), 0o644); err != nil {
			return engine.Artifact{}, fmt.Errorf("failed to write %s: %w", path, err)
		}
		return engine.Artifact{Path: path}, nil
	}), nil
}

func validateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid name %q: %w", name, ErrInvalidName)
	}
	return nil
}
