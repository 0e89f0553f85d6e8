package staging

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOpenRemove(t *testing.T) {
	area, err := NewFSArea(afero.NewMemMapFs(), "/tmp/uploads")
	require.NoError(t, err)

	path, n, err := area.Create("cat.png", strings.NewReader("meow"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "/tmp/uploads", filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "-cat.png"))

	f, err := area.Open(path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "meow", string(data))

	require.NoError(t, area.Remove(path))
	paths, err := area.List()
	require.NoError(t, err)
	assert.Empty(t, paths)

	// second removal is a no-op
	assert.NoError(t, area.Remove(path))
}

func TestCreateNamesAreUnique(t *testing.T) {
	area := NewMemoryArea()

	first, _, err := area.Create("same.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	second, _, err := area.Create("same.jpg", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	paths, err := area.List()
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestCreateStripsDirectories(t *testing.T) {
	area := NewMemoryArea()

	path, _, err := area.Create("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, area.Dir(), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "-passwd"))
}

func TestOpenRejectsForeignPaths(t *testing.T) {
	area := NewMemoryArea()

	_, err := area.Open("/etc/passwd")
	assert.Error(t, err)
	assert.Error(t, area.Remove("/staging/../etc/passwd"))
}

func TestSweepRemovesStaleEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	area, err := NewFSArea(fs, "/staging")
	require.NoError(t, err)

	stale, _, err := area.Create("old.png", strings.NewReader("old"))
	require.NoError(t, err)
	fresh, _, err := area.Create("new.png", strings.NewReader("new"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, fs.Chtimes(stale, past, past))

	removed, err := area.Sweep(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	paths, err := area.List()
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, paths)
}
