package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/streamsite/internal/content"
)

func TestCleanOutput(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		require.NoError(t, cleanOutput(dir))
		assert.DirExists(t, dir)
	})

	t.Run("empties existing directory but keeps it", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deep"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep", "f"), []byte("x"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "top"), []byte("x"), 0o600))
		before, err := os.Stat(dir)
		require.NoError(t, err)

		require.NoError(t, cleanOutput(dir))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
		after, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, os.SameFile(before, after))
	})

	t.Run("rejects a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		assert.Error(t, cleanOutput(path))
	})
}

func TestDigest(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "x", "f.txt"), []byte("same"), 0o600))
	}

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
	assert.Len(t, da, 64)

	// Moving content between files changes the digest.
	require.NoError(t, os.Rename(filepath.Join(b, "x", "f.txt"), filepath.Join(b, "x", "g.txt")))
	db, err = Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestPaginate(t *testing.T) {
	assert.Empty(t, paginate(nil, 8))

	streams := make(content.StreamDB, 10)
	var sizes []int
	for _, c := range paginate(streams, 4) {
		sizes = append(sizes, len(c))
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)
}
