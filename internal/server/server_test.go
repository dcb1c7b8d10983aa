package server

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/simplekv/internal/client"
	"github.com/iamNilotpal/simplekv/internal/engine/kvstore"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/pool"
)

// startServer serves a fresh store over a loopback listener and returns the
// dial address plus a shutdown func.
func startServer(t *testing.T, dir string) (string, func()) {
	t.Helper()
	log := zap.NewNop().Sugar()

	store, err := kvstore.Open(&kvstore.Config{Dir: dir, Logger: log})
	require.NoError(t, err)

	workers, err := pool.New(4, log)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(store, workers, log)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(listener) }()

	shutdown := func() {
		require.NoError(t, listener.Close())
		require.NoError(t, <-done)
		workers.Close()
		require.NoError(t, store.Close())
	}
	return listener.Addr().String(), shutdown
}

func dial(t *testing.T, addr string) *client.KvClient {
	t.Helper()
	c, err := client.Connect(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSetThenGet(t *testing.T) {
	addr, shutdown := startServer(t, t.TempDir())
	defer shutdown()
	c := dial(t, addr)

	require.NoError(t, c.Set("key1", "value1"))

	value, found, err := c.Get("key1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "value1", value)
}

func TestOverwrite(t *testing.T) {
	addr, shutdown := startServer(t, t.TempDir())
	defer shutdown()
	c := dial(t, addr)

	require.NoError(t, c.Set("key1", "value1"))
	require.NoError(t, c.Set("key1", "value2"))

	value, found, err := c.Get("key1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "value2", value)
}

func TestGetMissingKey(t *testing.T) {
	addr, shutdown := startServer(t, t.TempDir())
	defer shutdown()
	c := dial(t, addr)

	_, found, err := c.Get("key2")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRemoveMissingKey(t *testing.T) {
	addr, shutdown := startServer(t, t.TempDir())
	defer shutdown()
	c := dial(t, addr)

	err := c.Remove("key2")
	require.Error(t, err)
	require.EqualError(t, err, errors.KeyNotFoundMessage)

	// The connection survives the failed request.
	require.NoError(t, c.Set("key2", "value3"))
	value, found, err := c.Get("key2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "value3", value)
}

func TestStateSurvivesServerRestart(t *testing.T) {
	dir := t.TempDir()

	addr, shutdown := startServer(t, dir)
	c := dial(t, addr)
	require.NoError(t, c.Set("key1", "v1"))
	require.NoError(t, c.Set("key2", "v2"))
	require.NoError(t, c.Remove("key1"))
	require.NoError(t, c.Close())
	shutdown()

	addr, shutdown = startServer(t, dir)
	defer shutdown()
	c = dial(t, addr)

	_, found, err := c.Get("key1")
	require.NoError(t, err)
	require.False(t, found)

	value, found, err := c.Get("key2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v2", value)
}

func TestConcurrentClients(t *testing.T) {
	addr, shutdown := startServer(t, t.TempDir())
	defer shutdown()

	seed := dial(t, addr)
	require.NoError(t, seed.Set("shared", "payload"))

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		c, err := client.Connect(addr)
		require.NoError(t, err)

		wg.Add(1)
		go func(c *client.KvClient) {
			defer wg.Done()
			defer func() { _ = c.Close() }()
			for n := 0; n < 50; n++ {
				value, found, err := c.Get("shared")
				if err != nil {
					errCh <- err
					return
				}
				if !found || value != "payload" {
					errCh <- errors.NewBaseError(nil, errors.ErrorCodeInternal, "unexpected read: "+value)
					return
				}
			}
		}(c)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
}
