package simplekv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/options"
)

func TestEmbeddedStore(t *testing.T) {
	dir := t.TempDir()

	store, err := Open("simplekv-test", options.WithDataDir(dir))
	require.NoError(t, err)

	require.NoError(t, store.Set("key1", "value1"))

	value, found, err := store.Get("key1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "value1", value)

	require.NoError(t, store.Remove("key1"))
	err = store.Remove("key1")
	require.True(t, errors.IsKeyNotFound(err))

	require.NoError(t, store.Close())

	// The directory is resumable by a second instance.
	store, err = Open("simplekv-test", options.WithDataDir(dir))
	require.NoError(t, err)

	_, found, err = store.Get("key1")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, store.Close())
}

func TestCompactionThresholdOption(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(
		"simplekv-test",
		options.WithDataDir(dir),
		options.WithCompactionThreshold(1024),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	// Enough churn on one key to cross the lowered threshold several times.
	for i := 0; i < 200; i++ {
		require.NoError(t, store.Set("hot", "payload-payload-payload"))
	}

	value, found, err := store.Get("hot")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "payload-payload-payload", value)
}
