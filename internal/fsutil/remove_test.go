package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFs records every path passed to Remove.
type recordingFs struct {
	afero.Fs
	removed []string
	failOn  string
}

func (r *recordingFs) Remove(name string) error {
	if name == r.failOn {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrPermission}
	}
	r.removed = append(r.removed, name)
	return r.Fs.Remove(name)
}

func writeTree(t *testing.T, afs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, afs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(afs, path, []byte(content), 0o644))
	}
}

func TestRemoveRecursive_FileAndEmptySubdir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "parent")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	afs := afero.NewOsFs()
	require.NoError(t, RemoveRecursive(afs, root))

	_, err := afero.ReadDir(afs, root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "listing removed dir should fail with not-exist, got %v", err)
}

func TestRemoveRecursive_NestedTree(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeTree(t, afs, "/work", map[string]string{
		"top.txt":             "top",
		"lib/a.jar":           "a",
		"lib/nested/b.jar":    "b",
		"lib/nested/deep/c.x": "c",
		"res/values.xml":      "<xml/>",
	})

	require.NoError(t, RemoveRecursive(afs, "/work"))

	for _, path := range []string{"/work", "/work/lib", "/work/lib/nested/deep/c.x", "/work/res/values.xml"} {
		exists, err := afero.Exists(afs, path)
		require.NoError(t, err)
		assert.False(t, exists, "%s should be gone", path)
	}
}

func TestRemoveRecursive_PostOrder(t *testing.T) {
	rec := &recordingFs{Fs: afero.NewMemMapFs()}
	writeTree(t, rec, "/root", map[string]string{
		"a.txt":       "a",
		"sub/b.txt":   "b",
		"sub/c/d.txt": "d",
	})

	require.NoError(t, RemoveRecursive(rec, "/root"))

	index := make(map[string]int, len(rec.removed))
	for i, path := range rec.removed {
		index[path] = i
	}
	require.Len(t, index, 6)

	for path, pos := range index {
		parent := filepath.Dir(path)
		if parentPos, ok := index[parent]; ok {
			assert.Less(t, pos, parentPos, "%s must be removed before %s", path, parent)
		}
	}
	assert.Equal(t, "/root", rec.removed[len(rec.removed)-1])
}

func TestRemoveRecursive_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		err := RemoveRecursive(afero.NewMemMapFs(), "/nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("path is a file", func(t *testing.T) {
		afs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(afs, "/file.txt", []byte("x"), 0o644))

		err := RemoveRecursive(afs, "/file.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotDirectory)
	})

	t.Run("removal failure aborts", func(t *testing.T) {
		rec := &recordingFs{Fs: afero.NewMemMapFs(), failOn: "/root/locked.txt"}
		writeTree(t, rec, "/root", map[string]string{"locked.txt": "x"})

		err := RemoveRecursive(rec, "/root")
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrPermission)

		exists, err := afero.DirExists(rec, "/root")
		require.NoError(t, err)
		assert.True(t, exists, "parent must survive a failed child removal")
	})
}
