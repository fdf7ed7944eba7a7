package archivers

import (
	"context"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipArchiver(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeSources(t, afs, map[string]string{
		"/src/x/report.txt":        "x",
		"/src/y/report.txt":        "y",
		"/src/AndroidManifest.xml": "<manifest/>",
	})
	archiver := NewZipArchiver()
	assert.Equal(t, KindZip, archiver.Kind())
	assert.Equal(t, ".zip", archiver.Extension())

	files := []string{"/src/AndroidManifest.xml", "/src/x/report.txt", "/src/y/report.txt"}
	require.NoError(t, archiver.Archive(t.Context(), afs, files, "/out/app.zip"))

	f := openArchive(t, afs, "/out/app.zip")
	info, err := f.Stat()
	require.NoError(t, err)
	zr, err := zip.NewReader(f, info.Size())
	require.NoError(t, err)

	var names []string
	for _, entry := range zr.File {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"AndroidManifest.xml", "report.txt", "report.txt"}, names)
}

func TestZipArchiver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := NewZipArchiver().Archive(ctx, afero.NewMemMapFs(), nil, "/out.zip")
	assert.ErrorIs(t, err, context.Canceled)
}
