package sources

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	v1 "github.com/pkgtool/pkgtool/apis/v1"
	"github.com/pkgtool/pkgtool/internal/engine"
)

// Register adds every built-in source kind to registry.
func Register(registry *engine.Registry) {
	registry.RegisterSource(FileSourceKind, engine.NewSourceFactory(FileSourceKind, newFileSource))
	registry.RegisterSource(InlineSourceKind, engine.NewSourceFactory(InlineSourceKind, newInlineSource))
	registry.RegisterSource(ExecSourceKind, engine.NewSourceFactory(ExecSourceKind, newExecSource))
	registry.RegisterSource(HTTPSourceKind, engine.NewSourceFactory(HTTPSourceKind, newHTTPSource))
}

func newFileSource(_ context.Context, _ *zap.Logger, id string, spec v1.FileSource) (engine.Source, error) {
	return NewFileSource(fmt.Sprintf("%s(%s)", FileSourceKind, id), FileSourceConfig{Path: spec.Path})
}

func newInlineSource(_ context.Context, _ *zap.Logger, id string, spec v1.InlineSource) (engine.Source, error) {
	return NewInlineSource(fmt.Sprintf("%s(%s)", InlineSourceKind, id), InlineSourceConfig{
		Name:    spec.Name,
		Content: spec.Content,
	})
}

func newExecSource(_ context.Context, logger *zap.Logger, id string, spec v1.ExecSource) (engine.Source, error) {
	return NewExecSource(fmt.Sprintf("%s(%s)", ExecSourceKind, id), logger, ExecSourceConfig{
		Program: spec.Program,
		Output:  spec.Output,
		Env:     spec.Env,
		Timeout: spec.Timeout,
	})
}

func newHTTPSource(_ context.Context, _ *zap.Logger, id string, spec v1.HTTPSource) (engine.Source, error) {
	cfg := HTTPSourceConfig{
		URL:      spec.URL,
		Headers:  spec.Headers,
		Insecure: spec.Insecure,
	}
	if spec.Name != nil {
		cfg.Name = *spec.Name
	}
	if spec.Timeout != nil {
		cfg.Timeout = time.Duration(*spec.Timeout) * time.Second
	}

	return NewHTTPSource(id, cfg)
}
