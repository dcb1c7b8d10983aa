package iopos

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterTracksOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)

	w, err := NewWriter(file)
	require.NoError(t, err)
	require.Equal(t, int64(0), w.Offset())

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int64(5), w.Offset())

	_, err = w.Write([]byte(" world"))
	require.NoError(t, err)
	require.Equal(t, int64(11), w.Offset())
	require.NoError(t, w.Close())

	// Reopening an existing file must resume at its end.
	file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	w, err = NewWriter(file)
	require.NoError(t, err)
	require.Equal(t, int64(11), w.Offset())
	require.NoError(t, w.Close())
}

func TestReaderTracksOffsetAcrossSeeks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	file, err := os.Open(path)
	require.NoError(t, err)
	r, err := NewReader(file)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, "0123", string(buf))
	require.Equal(t, int64(4), r.Offset())

	off, err := r.Seek(7, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(7), off)

	_, err = io.ReadFull(r, buf[:3])
	require.NoError(t, err)
	require.Equal(t, "789", string(buf[:3]))
	require.Equal(t, int64(10), r.Offset())

	// Relative seeks resolve against the tracked offset, not the file
	// cursor the buffer may have pushed ahead.
	off, err = r.Seek(-5, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(5), off)

	_, err = io.ReadFull(r, buf[:2])
	require.NoError(t, err)
	require.Equal(t, "56", string(buf[:2]))
}
