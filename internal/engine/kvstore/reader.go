package kvstore

import (
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/iamNilotpal/simplekv/internal/index"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/iopos"
)

// segmentReaders is a handle over the store's immutable segments. It keeps a
// private cache of open segment readers so repeated reads of the same
// generation don't reopen the file.
//
// The only state shared with other handles is the safe-point atomic: the
// lowest generation readers must still be able to open, published by the
// compactor. Before every read the cache evicts generations below the safe
// point, so it never holds files the compactor has deleted or is about to
// delete.
//
// The cache is guarded by its own small mutex. The store's read handle and
// the writer's compaction handle are independent instances, so reads never
// contend with compaction on cache state.
type segmentReaders struct {
	dir       string
	safePoint *atomic.Uint64

	mu    sync.Mutex
	cache map[uint64]*iopos.Reader
}

func newSegmentReaders(dir string, safePoint *atomic.Uint64) *segmentReaders {
	return &segmentReaders{
		dir:       dir,
		safePoint: safePoint,
		cache:     make(map[uint64]*iopos.Reader),
	}
}

// readAt decodes the Set record an index entry points at. An entry that
// decodes to anything else signals corruption.
func (sr *segmentReaders) readAt(loc index.CommandIndex) (record, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	reader, err := sr.acquire(loc)
	if err != nil {
		return record{}, err
	}

	rec, err := decodeRecord(io.LimitReader(reader, loc.Len))
	if err != nil {
		return record{}, err
	}
	if rec.Set == nil {
		return record{}, errors.NewStorageError(
			nil, errors.ErrorCodeUnexpectedRecord, "Index entry does not point at a Set record",
		).WithGeneration(loc.Generation).WithOffset(loc.Start)
	}
	return rec, nil
}

// copyTo streams the raw bytes of an index entry into w without decoding
// them, returning the number of bytes copied. Compaction uses this to carry
// live records into their new segment verbatim.
func (sr *segmentReaders) copyTo(loc index.CommandIndex, w io.Writer) (int64, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	reader, err := sr.acquire(loc)
	if err != nil {
		return 0, err
	}

	copied, err := io.CopyN(w, reader, loc.Len)
	if err != nil {
		return copied, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to copy record between segments",
		).WithGeneration(loc.Generation).WithOffset(loc.Start)
	}
	return copied, nil
}

// acquire evicts retired generations, then returns a cached or freshly
// opened reader positioned at the entry's start offset. Caller holds mu.
func (sr *segmentReaders) acquire(loc index.CommandIndex) (*iopos.Reader, error) {
	sr.evictLocked()

	reader, ok := sr.cache[loc.Generation]
	if !ok {
		var err error
		if reader, err = openSegment(sr.dir, loc.Generation); err != nil {
			return nil, err
		}
		sr.cache[loc.Generation] = reader
	}

	// Sequential access during compaction often lands exactly where the
	// previous copy stopped.
	if reader.Offset() != loc.Start {
		if _, err := reader.Seek(loc.Start, io.SeekStart); err != nil {
			return nil, errors.NewStorageError(
				err, errors.ErrorCodeIO, "Failed to seek to record start",
			).WithGeneration(loc.Generation).WithOffset(loc.Start)
		}
	}
	return reader, nil
}

// evictRetired drops cached readers for generations below the safe point.
// The compactor calls this right after publishing a new safe point.
func (sr *segmentReaders) evictRetired() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.evictLocked()
}

func (sr *segmentReaders) evictLocked() {
	safePoint := sr.safePoint.Load()
	for generation, reader := range sr.cache {
		if generation >= safePoint {
			continue
		}
		_ = reader.Close()
		delete(sr.cache, generation)
	}
}

// Close releases every cached file handle.
func (sr *segmentReaders) Close() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	var errs error
	for generation, reader := range sr.cache {
		errs = multierr.Append(errs, reader.Close())
		delete(sr.cache, generation)
	}
	return errs
}
