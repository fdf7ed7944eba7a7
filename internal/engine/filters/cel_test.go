package filters

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgtool/pkgtool/internal/engine"
)

func TestNewCELFilter(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		errContains string
	}{
		{name: "bool expression", expr: `ext == "jar"`},
		{name: "combined expression", expr: `size < 1024 && !name.startsWith(".")`},
		{name: "syntax error", expr: `ext ==`, errContains: "failed to compile"},
		{name: "unknown variable", expr: `owner == "root"`, errContains: "failed to compile"},
		{name: "non bool result", expr: `size + 1`, errContains: "must evaluate to bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewCELFilter(tt.expr)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())
		})
	}
}

func TestCELFilter_Apply(t *testing.T) {
	afs := afero.NewMemMapFs()
	files := map[string]string{
		"/work/classes.jar":  strings.Repeat("x", 10),
		"/work/.DS_Store":    "junk",
		"/work/huge.jar":     strings.Repeat("x", 4096),
		"/work/manifest.xml": "<manifest/>",
		"/work/Readme.TXT":   "read me",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(afs, path, []byte(content), 0o644))
	}
	artifacts := []engine.Artifact{
		{ID: "classes", Path: "/work/classes.jar"},
		{ID: "junk", Path: "/work/.DS_Store"},
		{ID: "huge", Path: "/work/huge.jar"},
		{ID: "manifest", Path: "/work/manifest.xml"},
		{ID: "readme", Path: "/work/Readme.TXT"},
	}

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "keep everything", expr: `true`, want: []string{"classes", "junk", "huge", "manifest", "readme"}},
		{name: "by extension", expr: `ext in ["jar", "xml"]`, want: []string{"classes", "huge", "manifest"}},
		{name: "lower-cased extension", expr: `ext == "txt"`, want: []string{"readme"}},
		{name: "by size", expr: `ext == "jar" && size < 1024`, want: []string{"classes"}},
		{name: "hidden files", expr: `!name.startsWith(".")`, want: []string{"classes", "huge", "manifest", "readme"}},
		{name: "by id", expr: `id != "manifest"`, want: []string{"classes", "junk", "huge", "readme"}},
		{name: "nothing", expr: `false`, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewCELFilter(tt.expr)
			require.NoError(t, err)

			kept, err := f.Apply(t.Context(), afs, artifacts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lo.Map(kept, func(a engine.Artifact, _ int) string { return a.ID }))
		})
	}
}

func TestCELFilter_MissingFile(t *testing.T) {
	f, err := NewCELFilter(`true`)
	require.NoError(t, err)

	_, err = f.Match(t.Context(), afero.NewMemMapFs(), engine.Artifact{ID: "gone", Path: "/gone.txt"})
	assert.ErrorContains(t, err, "failed to stat /gone.txt")
}
