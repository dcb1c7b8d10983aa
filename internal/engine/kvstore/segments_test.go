package kvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListGenerationsSortsNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10.log", "2.log", "1.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	generations, err := listGenerations(dir)
	require.NoError(t, err)
	// Lexicographic ordering would put 10 before 2.
	require.Equal(t, []uint64{1, 2, 10}, generations)
}

func TestListGenerationsIgnoresForeignEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.log"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine"), []byte("kvstore"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.log"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "4.log.bak"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "5.log"), 0755))

	generations, err := listGenerations(dir)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, generations)
}

func TestSegmentPath(t *testing.T) {
	require.Equal(t, filepath.Join("data", "42.log"), segmentPath("data", 42))
}

func TestCreateSegmentResumesAtEnd(t *testing.T) {
	dir := t.TempDir()

	w, err := createSegment(dir, 1)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = createSegment(dir, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), w.Offset())
	require.NoError(t, w.Close())
}
