package runner

import (
	"fmt"

	v1 "github.com/pkgtool/pkgtool/apis/v1"
	"github.com/pkgtool/pkgtool/internal/sources"
)

// ResolvedSpec holds a kind identifier and the spec for that kind.
type ResolvedSpec struct {
	Kind string
	Spec any
}

// ResolveSourceSpec extracts the kind and spec from a v1.Source.
// Exactly one source type must be set.
func ResolveSourceSpec(s v1.Source) (ResolvedSpec, error) {
	var resolved []ResolvedSpec
	if s.File != nil {
		resolved = append(resolved, ResolvedSpec{Kind: sources.FileSourceKind, Spec: *s.File})
	}
	if s.Inline != nil {
		resolved = append(resolved, ResolvedSpec{Kind: sources.InlineSourceKind, Spec: *s.Inline})
	}
	if s.Exec != nil {
		resolved = append(resolved, ResolvedSpec{Kind: sources.ExecSourceKind, Spec: *s.Exec})
	}
	if s.HTTP != nil {
		resolved = append(resolved, ResolvedSpec{Kind: sources.HTTPSourceKind, Spec: *s.HTTP})
	}

	switch len(resolved) {
	case 0:
		return ResolvedSpec{}, fmt.Errorf("source %q has no type specified", s.ID)
	case 1:
		return resolved[0], nil
	default:
		return ResolvedSpec{}, fmt.Errorf("source %q has %d types specified, expected one", s.ID, len(resolved))
	}
}
