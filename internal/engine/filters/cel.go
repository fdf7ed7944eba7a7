// Package filters selects which fetched artifacts end up in the archive.
package filters

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
)

// CELFilter keeps artifacts for which a CEL expression evaluates to true.
// The expression sees these variables:
//
//	id    string  source ID
//	name  string  base name of the file (the archive entry name)
//	path  string  full path of the file
//	ext   string  extension without the dot, lower-cased
//	size  int     size in bytes
type CELFilter struct {
	expr    string
	program cel.Program
}

func NewCELFilter(expr string) (*CELFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("ext", cel.StringType),
		cel.Variable("size", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, issues.Err())
	}

	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, out)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter program %q: %w", expr, err)
	}

	return &CELFilter{expr: expr, program: program}, nil
}

func (f *CELFilter) String() string {
	return f.expr
}

// Match reports whether artifact passes the filter.
func (f *CELFilter) Match(ctx context.Context, fs afero.Fs, artifact engine.Artifact) (bool, error) {
	info, err := fs.Stat(artifact.Path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", artifact.Path, err)
	}

	name := filepath.Base(artifact.Path)
	out, _, err := f.program.ContextEval(ctx, map[string]any{
		"id":   artifact.ID,
		"name": name,
		"path": artifact.Path,
		"ext":  strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")),
		"size": info.Size(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q for %s: %w", f.expr, artifact.ID, err)
	}

	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T for %s, expected bool", f.expr, out.Value(), artifact.ID)
	}

	return keep, nil
}

// Apply returns the artifacts passing the filter, in their original order.
func (f *CELFilter) Apply(ctx context.Context, fs afero.Fs, artifacts []engine.Artifact) ([]engine.Artifact, error) {
	kept := make([]engine.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		keep, err := f.Match(ctx, fs, artifact)
		if err != nil {
			return nil, err
		}
		if keep {
			kept = append(kept, artifact)
		}
	}
	return kept, nil
}
