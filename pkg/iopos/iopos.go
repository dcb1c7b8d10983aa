// Package iopos provides buffered file readers and writers that track the
// current logical byte offset. The tracked offset is updated on every read,
// write, and seek, so callers can derive the exact byte range a record
// occupies without consulting the OS.
package iopos

import (
	"bufio"
	"io"
	"os"
)

// Reader is a buffered, seekable reader over a segment file. Seeking resets
// the internal buffer so reads always reflect the requested position.
type Reader struct {
	file *os.File
	buf  *bufio.Reader
	off  int64
}

// NewReader wraps file, recording its current position as the starting offset.
func NewReader(file *os.File) (*Reader, error) {
	off, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	return &Reader{file: file, buf: bufio.NewReader(file), off: off}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.buf.Read(p)
	r.off += int64(n)
	return n, err
}

// Seek repositions the underlying file and discards buffered data. A relative
// seek is resolved against the tracked offset, not the file cursor, because
// the buffer may have read ahead.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset += r.off
		whence = io.SeekStart
	}
	off, err := r.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	r.buf.Reset(r.file)
	r.off = off
	return off, nil
}

// Offset returns the logical position of the next read.
func (r *Reader) Offset() int64 {
	return r.off
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// Writer is a buffered append writer over a segment file. Before a write,
// Offset is the position the upcoming record begins at; after Flush it is the
// position just past the record.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	off  int64
}

// NewWriter wraps file positioned at its end.
func NewWriter(file *os.File) (*Writer, error) {
	off, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	return &Writer{file: file, buf: bufio.NewWriter(file), off: off}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.off += int64(n)
	return n, err
}

// Flush pushes buffered bytes through to the OS.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Offset returns the logical position of the next write.
func (w *Writer) Offset() int64 {
	return w.off
}

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Close()
}
