package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrentEngineWithoutSentinel(t *testing.T) {
	name, err := CurrentEngine(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, name)
}

func TestRecordAndReadBack(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, RecordEngine(dir, NameKvStore))
	name, err := CurrentEngine(dir)
	require.NoError(t, err)
	require.Equal(t, NameKvStore, name)

	// Recording a different engine replaces the content; refusing a
	// mismatch is a caller-side decision, the sentinel just stores what it
	// is given.
	require.NoError(t, RecordEngine(dir, NameSled))
	name, err = CurrentEngine(dir)
	require.NoError(t, err)
	require.Equal(t, NameSled, name)
}

func TestCurrentEngineTrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine"), []byte("kvstore\n"), 0644))

	name, err := CurrentEngine(dir)
	require.NoError(t, err)
	require.Equal(t, NameKvStore, name)
}

func TestValidName(t *testing.T) {
	require.True(t, ValidName(NameKvStore))
	require.True(t, ValidName(NameSled))
	require.False(t, ValidName("bolt"))
	require.False(t, ValidName(""))
}
