package kvstore

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/simplekv/internal/index"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/iopos"
)

// logWriter owns all mutation of the store: the active segment's write
// handle, the current generation, the dead-byte tally, and compaction. A
// single mutex serializes set, remove, and the compaction they may trigger;
// readers are never blocked by it.
//
// The writer keeps its own segmentReaders handle to stream old segments
// during compaction. It is a view over the same directory and safe point,
// not an ownership cycle.
type logWriter struct {
	dir       string
	log       *zap.SugaredLogger
	idx       *index.Index
	safePoint *atomic.Uint64
	readers   *segmentReaders

	mu          sync.Mutex
	active      *iopos.Writer
	generation  uint64
	uncompacted uint64 // estimated dead bytes in older segments
	threshold   uint64
}

// set appends a Set record and publishes the key's new location. The flushed
// record is the commit point: a crash after the flush but before the index
// update is repaired by replay on the next open.
func (w *logWriter) set(key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := w.active.Offset()
	if err := encodeRecord(w.active, newSetRecord(key, value)); err != nil {
		return err
	}
	if err := w.active.Flush(); err != nil {
		return errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to flush Set record",
		).WithGeneration(w.generation).WithOffset(start)
	}
	end := w.active.Offset()

	loc := index.CommandIndex{Generation: w.generation, Start: start, Len: end - start}
	if old, existed := w.idx.Put(key, loc); existed {
		w.uncompacted += uint64(old.Len)
	}
	return w.maybeCompact()
}

// remove appends a Remove record and drops the key. A remove against an
// absent key fails without writing anything.
func (w *logWriter) remove(key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.idx.Lookup(key); !ok {
		return errors.NewKeyNotFound()
	}

	start := w.active.Offset()
	if err := encodeRecord(w.active, newRemoveRecord(key)); err != nil {
		return err
	}
	if err := w.active.Flush(); err != nil {
		return errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to flush Remove record",
		).WithGeneration(w.generation).WithOffset(start)
	}
	end := w.active.Offset()

	// Both the displaced Set record and the Remove record itself become
	// garbage once compaction rewrites the live set.
	if old, existed := w.idx.Delete(key); existed {
		w.uncompacted += uint64(old.Len)
	}
	w.uncompacted += uint64(end - start)
	return w.maybeCompact()
}

func (w *logWriter) maybeCompact() error {
	if w.uncompacted <= w.threshold {
		return nil
	}
	return w.compact()
}

// compact rewrites every live record into a fresh segment and deletes the
// generations it obsoletes. Two generations are claimed: generation+1
// receives the live records and generation+2 becomes the new active
// segment, so compacted contents are never interleaved with user writes
// landing right after compaction. Caller holds mu; readers proceed
// throughout.
func (w *logWriter) compact() error {
	compactGeneration := w.generation + 1
	nextGeneration := w.generation + 2

	w.log.Infow(
		"Compaction started",
		"uncompactedBytes", w.uncompacted,
		"compactGeneration", compactGeneration,
		"nextGeneration", nextGeneration,
	)

	active, err := createSegment(w.dir, nextGeneration)
	if err != nil {
		return err
	}
	if err := w.active.Close(); err != nil {
		_ = active.Close()
		return errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to close previous active segment",
		).WithGeneration(w.generation)
	}
	w.active = active
	w.generation = nextGeneration

	compactWriter, err := createSegment(w.dir, compactGeneration)
	if err != nil {
		return err
	}

	var copyErr error
	w.idx.Range(func(key string, loc index.CommandIndex) bool {
		destination := compactWriter.Offset()
		copied, err := w.readers.copyTo(loc, compactWriter)
		if err != nil {
			copyErr = err
			return false
		}
		// Flush before publishing the new location so a concurrent reader
		// resolving the fresh entry never observes unwritten bytes.
		if err := compactWriter.Flush(); err != nil {
			copyErr = errors.NewStorageError(
				err, errors.ErrorCodeIO, "Failed to flush compacted record",
			).WithGeneration(compactGeneration).WithOffset(destination)
			return false
		}
		w.idx.Put(key, index.CommandIndex{
			Generation: compactGeneration,
			Start:      destination,
			Len:        copied,
		})
		return true
	})
	if copyErr != nil {
		_ = compactWriter.Close()
		return copyErr
	}
	if err := compactWriter.Close(); err != nil {
		return errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to close compacted segment",
		).WithGeneration(compactGeneration)
	}

	// Every index entry now points at a generation >= compactGeneration.
	// Publish it so readers drop handles for anything older.
	w.safePoint.Store(compactGeneration)
	w.readers.evictRetired()

	generations, err := listGenerations(w.dir)
	if err != nil {
		return err
	}
	for _, generation := range generations {
		if generation >= compactGeneration {
			continue
		}
		path := segmentPath(w.dir, generation)
		if err := os.Remove(path); err != nil {
			// The failure is logged and does not fail the compaction;
			// the next compaction retries the deletion. Until then the
			// surviving segment is replayed on open ahead of the
			// compacted one.
			w.log.Warnw(
				"Failed to delete stale segment",
				"generation", generation, "path", path, "error", err,
			)
		}
	}

	w.uncompacted = 0
	w.log.Infow(
		"Compaction finished",
		"compactGeneration", compactGeneration,
		"activeGeneration", w.generation,
		"liveKeys", w.idx.Size(),
	)
	return nil
}

// close flushes and releases the active segment and the compaction reader
// handle.
func (w *logWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs error
	errs = multierr.Append(errs, w.active.Close())
	errs = multierr.Append(errs, w.readers.Close())
	return errs
}
