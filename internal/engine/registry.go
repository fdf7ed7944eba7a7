package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type SourceFactory func(ctx context.Context, logger *zap.Logger, id string, input any) (Source, error)

// TypedSourceFactory is a strongly-typed source factory.
// S is the concrete source spec type (e.g. v1.HTTPSource).
type TypedSourceFactory[S any] func(ctx context.Context, logger *zap.Logger, id string, spec S) (Source, error)

// NewSourceFactory wraps a typed source factory into a generic SourceFactory.
// It centralizes the unsafe cast from any → S and provides a clear error if the type mismatches.
func NewSourceFactory[S any](kind string, f TypedSourceFactory[S]) SourceFactory {
	return func(ctx context.Context, logger *zap.Logger, id string, input any) (Source, error) {
		spec, ok := input.(S)
		if !ok {
			return nil, fmt.Errorf("invalid source spec for kind %q with id %s: %T", kind, id, input)
		}

		return f(ctx, logger, id, spec)
	}
}

// UnsupportedTypeError is returned when a source kind is not registered.
type UnsupportedTypeError struct {
	Category  string   // "source"
	Kind      string   // the requested kind
	Available []string // registered kinds
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unsupported %s type %q: no %ss registered", e.Category, e.Kind, e.Category)
	}
	return fmt.Sprintf("unsupported %s type %q (available: %v)", e.Category, e.Kind, e.Available)
}

type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		logger:  logger,
	}
}

func (r *Registry) RegisterSource(kind string, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[kind] = factory
}

func (r *Registry) CreateSource(ctx context.Context, kind string, id string, spec any) (Source, error) {
	r.mu.RLock()
	factory, ok := r.sources[kind]
	available := r.availableSources()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Category: "source", Kind: kind, Available: available}
	}
	return factory(ctx, r.logger.Named(kind), id, spec)
}

func (r *Registry) AvailableSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableSources()
}

func (r *Registry) availableSources() []string {
	sources := lo.Keys(r.sources)
	slices.Sort(sources)
	return sources
}
