package archivers

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	name    string
	content string
}

// readTarEntries decompresses the reader (gzip, zstd, or none) and returns the entries in archive order.
func readTarEntries(r io.Reader, compression string) ([]tarEntry, error) {
	var decompressed io.Reader
	switch compression {
	case "gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer lo.Must0(gr.Close())
		decompressed = gr
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		decompressed = zr
	case "none":
		decompressed = r
	default:
		return nil, fmt.Errorf("unknown compression: %s", compression)
	}
	tr := tar.NewReader(decompressed)
	var found []tarEntry
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		found = append(found, tarEntry{name: h.Name, content: string(content)})
	}
	return found, nil
}

func writeSources(t *testing.T, afs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(afs, path, []byte(content), 0o644))
	}
}

func openArchive(t *testing.T, afs afero.Fs, path string) afero.File {
	t.Helper()
	f, err := afs.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestNewTarArchiver(t *testing.T) {
	tests := []struct {
		name        string
		compression string
		wantExt     string
		wantErr     bool
	}{
		{
			name:        "gzip compression",
			compression: "gzip",
			wantExt:     ".tar.gz",
		},
		{
			name:        "zstd compression",
			compression: "zstd",
			wantExt:     ".tar.zst",
		},
		{
			name:        "no compression",
			compression: "none",
			wantExt:     ".tar",
		},
		{
			name:        "empty defaults to gzip",
			compression: "",
			wantExt:     ".tar.gz",
		},
		{
			name:        "unsupported compression",
			compression: "bzip2",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archiver, err := NewTarArchiver(tt.compression)
			if tt.wantErr {
				require.Error(t, err, "NewTarArchiver() expected error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, archiver.Extension())
			assert.Equal(t, KindTar, archiver.Kind())
		})
	}
}

func TestTarArchiver_Archive(t *testing.T) {
	for _, compression := range []string{"gzip", "zstd", "none"} {
		t.Run(compression, func(t *testing.T) {
			afs := afero.NewMemMapFs()
			writeSources(t, afs, map[string]string{
				"/src/b/second.txt": "content2",
				"/src/a/first.txt":  "content1",
				"/src/third.json":   `{"n":3}`,
			})
			archiver, err := NewTarArchiver(compression)
			require.NoError(t, err)

			files := []string{"/src/b/second.txt", "/src/a/first.txt", "/src/third.json"}
			require.NoError(t, archiver.Archive(t.Context(), afs, files, "/out/bundle"+archiver.Extension()))

			found, err := readTarEntries(openArchive(t, afs, "/out/bundle"+archiver.Extension()), compression)
			require.NoError(t, err)
			assert.Equal(t, []tarEntry{
				{name: "second.txt", content: "content2"},
				{name: "first.txt", content: "content1"},
				{name: "third.json", content: `{"n":3}`},
			}, found)
		})
	}
}

func TestTarArchiver_ReplacesTarget(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeSources(t, afs, map[string]string{
		"/out.tar":   "not a tar archive at all",
		"/src/a.txt": "a",
	})
	archiver, err := NewTarArchiver("none")
	require.NoError(t, err)

	require.NoError(t, archiver.Archive(t.Context(), afs, []string{"/src/a.txt"}, "/out.tar"))

	found, err := readTarEntries(openArchive(t, afs, "/out.tar"), "none")
	require.NoError(t, err)
	assert.Equal(t, []tarEntry{{name: "a.txt", content: "a"}}, found)
}

func TestTarArchiver_Errors(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		archiver, err := NewTarArchiver("gzip")
		require.NoError(t, err)

		err = archiver.Archive(t.Context(), afero.NewMemMapFs(), []string{"/missing"}, "/out.tar.gz")
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to open /missing")
	})

	t.Run("directory source", func(t *testing.T) {
		afs := afero.NewMemMapFs()
		require.NoError(t, afs.MkdirAll("/src/dir", 0o755))
		archiver, err := NewTarArchiver("gzip")
		require.NoError(t, err)

		err = archiver.Archive(t.Context(), afs, []string{"/src/dir"}, "/out.tar.gz")
		assert.ErrorContains(t, err, "expected file, got directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		afs := afero.NewMemMapFs()
		writeSources(t, afs, map[string]string{"/src/a.txt": "a"})
		archiver, err := NewTarArchiver("none")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err = archiver.Archive(ctx, afs, []string{"/src/a.txt"}, "/out.tar")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
