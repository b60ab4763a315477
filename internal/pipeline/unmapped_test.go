package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/coauthor/internal/author"
)

func TestUnmappedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), UnmappedFile)
	chars := []author.UnmappedCharacter{
		{Char: 'ĳ', Count: 3, Example: "Ĳsbrand"},
		{Char: '李', Count: 1, Example: "李\tWei"},
	}
	require.NoError(t, WriteUnmapped(path, chars))

	got, err := ReadUnmapped(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chars[0], got[0])
	assert.Equal(t, "李 Wei", got[1].Example)
}

func TestWriteUnmappedEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), UnmappedFile)
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0644))
	require.NoError(t, WriteUnmapped(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestReadUnmappedMissing(t *testing.T) {
	got, err := ReadUnmapped(filepath.Join(t.TempDir(), "none.tsv"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadUnmappedMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), UnmappedFile)
	require.NoError(t, os.WriteFile(path, []byte("U+00E9\té\n"), 0644))
	_, err := ReadUnmapped(path)
	assert.ErrorContains(t, err, "want 4")
}
