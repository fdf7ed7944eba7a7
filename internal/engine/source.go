package engine

import (
	"context"

	"github.com/spf13/afero"
)

// Artifact is a file produced by a Source. Each artifact becomes one archive entry.
type Artifact struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Source produces one file to bundle. Sources that download or generate
// content write it below dir, an existing directory inside the run's scoped
// working directory that no other source writes to. Sources pointing at
// existing files return their path as is.
type Source interface {
	Named
	Fetch(ctx context.Context, fs afero.Fs, dir string) (Artifact, error)
}

type sourceFunc struct {
	name string
	kind string
	fn   func(ctx context.Context, fs afero.Fs, dir string) (Artifact, error)
}

// SourceFunction adapts a function to the Source interface.
func SourceFunction(name, kind string, fn func(ctx context.Context, fs afero.Fs, dir string) (Artifact, error)) Source {
	return &sourceFunc{name: name, kind: kind, fn: fn}
}

func (s *sourceFunc) Name() string { return s.name }
func (s *sourceFunc) Kind() string { return s.kind }

func (s *sourceFunc) Fetch(ctx context.Context, fs afero.Fs, dir string) (Artifact, error) {
	return s.fn(ctx, fs, dir)
}
