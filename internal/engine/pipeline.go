package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// SourceEntry holds a source with its ID for ordered execution.
type SourceEntry struct {
	ID     string
	Source Source
}

// Pipeline fetches its sources one after another, in the order they were added.
type Pipeline struct {
	name    string
	date    time.Time
	sources []SourceEntry
}

func NewPipeline(name string) *Pipeline {
	return &Pipeline{
		name: name,
		date: time.Now().UTC(),
	}
}

func (p *Pipeline) AddSource(id string, source Source) error {
	for _, entry := range p.sources {
		if entry.ID == id {
			return fmt.Errorf("source %s already exists", id)
		}
	}

	p.sources = append(p.sources, SourceEntry{ID: id, Source: source})
	return nil
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) Date() time.Time {
	return p.date
}

func (p *Pipeline) Sources() []SourceEntry {
	return p.sources
}

// Run fetches every source and returns the artifacts in source order. Each
// source gets its own subdirectory of dir, named after its position, so
// sources producing the same file name do not overwrite each other.
// fetched, if non-nil, is called after each successful fetch.
func (p *Pipeline) Run(ctx context.Context, fs afero.Fs, dir string, fetched func(Artifact)) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(p.sources))

	for i, entry := range p.sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled while running pipeline at source '%s': %w", entry.ID, err)
		}

		sourceDir := filepath.Join(dir, strconv.Itoa(i))
		if err := fs.MkdirAll(sourceDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for source '%s': %w", entry.ID, err)
		}

		artifact, err := entry.Source.Fetch(ctx, fs, sourceDir)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch source '%s' (%s): %w", entry.ID, entry.Source.Name(), err)
		}

		artifact.ID = entry.ID
		artifacts = append(artifacts, artifact)

		if fetched != nil {
			fetched(artifact)
		}
	}

	return artifacts, nil
}
