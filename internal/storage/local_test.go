package storage

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDoesNotOverwrite(t *testing.T) {
	l, err := NewLocal(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	var names []string
	for i := 0; i < 3; i++ {
		f, err := l.Create("merged.pdf")
		require.NoError(t, err)
		_, err = f.WriteString("x")
		require.NoError(t, err)
		require.NoError(t, f.Close())
		names = append(names, filepath.Base(f.Name()))
	}
	assert.Equal(t, []string{"merged.pdf", "merged (1).pdf", "merged (2).pdf"}, names)
}

func TestCreateStripsDirectories(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	f, err := l.Create("../../etc/passwd")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, filepath.Join(l.Dir(), "passwd"), f.Name())

	assert.Equal(t, "result", sanitizeName(""))
	assert.Equal(t, "a.png", sanitizeName(`dir\a.png`))
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestExtract(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	archive := filepath.Join(t.TempDir(), "images.zip")
	writeZip(t, archive, map[string]string{"page_0001.png": "one", "page_0002.png": "two"})

	paths, err := l.Extract(archive, "images")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(l.Dir(), "images", "page_0001.png"),
		filepath.Join(l.Dir(), "images", "page_0002.png"),
	}, paths)

	data, err := os.ReadFile(filepath.Join(l.Dir(), "images", "page_0002.png"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestExtractRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	archive := filepath.Join(t.TempDir(), "evil.zip")
	writeZip(t, archive, map[string]string{"../outside.txt": "nope"})

	_, err = l.Extract(archive, "evil")
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(l.Dir(), "outside.txt"))
}

func TestManifestRoundTrip(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	m := &Manifest{
		JobID:       "job-1",
		Operation:   "merge",
		Status:      "completed",
		Inputs:      []ManifestFile{{Name: "b.pdf", Size: 10, Pages: 2}, {Name: "a.pdf", Size: 5, Pages: 1}},
		Outputs:     []ManifestFile{{Name: "merged.pdf", Path: "merged.pdf", Size: 12}},
		CompletedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	path, err := l.WriteManifest(m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Dir(), ManifestFilename), path)

	loaded, err := l.LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	_, err = l.WriteManifest(nil)
	assert.Error(t, err)
}
