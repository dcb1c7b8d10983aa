// Package kvstore implements the log-structured storage engine: an
// append-only log of numbered segment files, an in-memory index mapping
// each key to its latest Set record, and in-line compaction that rewrites
// live records while concurrent readers keep traversing older segments.
//
// The concurrency contract is many readers, one writer. Mutation (set,
// remove, compaction) is serialized by a single mutex inside the writer;
// lookups go through a lock-free index and a reader handle whose only
// shared state with the writer is the safe-point atomic.
package kvstore

import (
	stdErrors "errors"
	"io/fs"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/simplekv/internal/index"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/filesys"
	"github.com/iamNilotpal/simplekv/pkg/options"
)

var (
	// ErrStoreClosed is returned when attempting to perform operations on a closed store.
	ErrStoreClosed = stdErrors.New("operation failed: cannot access closed store")
)

// KvStore is the engine facade. The handle is cheap to share: all state
// lives behind pointers, index lookups are lock-free, reads never take the
// writer's mutex (only the read handle's own cache mutex), and writes funnel
// through the writer's mutex.
type KvStore struct {
	dir       string
	log       *zap.SugaredLogger
	closed    atomic.Bool
	idx       *index.Index
	safePoint *atomic.Uint64
	readers   *segmentReaders
	writer    *logWriter
}

// Config holds the parameters needed to open a store.
type Config struct {
	// Dir is the directory holding the segment files. Created if absent.
	Dir string

	// Logger provides structured logging throughout the engine.
	Logger *zap.SugaredLogger

	// CompactionThreshold overrides the dead-byte budget that triggers
	// compaction. Zero means options.DefaultCompactionThreshold.
	CompactionThreshold uint64
}

// Open scans Dir for segment files, replays them in generation order to
// rebuild the index and the dead-byte tally, and starts a fresh active
// segment one generation past the highest found. It fails if any existing
// segment contains a truncated or malformed record.
func Open(config *Config) (*KvStore, error) {
	if config == nil || config.Dir == "" || config.Logger == nil {
		return nil, errors.NewBaseError(
			nil, errors.ErrorCodeInvalidInput, "Store configuration is required",
		)
	}

	threshold := config.CompactionThreshold
	if threshold == 0 {
		threshold = options.DefaultCompactionThreshold
	}

	if err := filesys.CreateDir(config.Dir, 0755, true); err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to create data directory",
		).WithPath(config.Dir)
	}

	generations, err := listGenerations(config.Dir)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	var uncompacted uint64
	for _, generation := range generations {
		reader, err := openSegment(config.Dir, generation)
		if err != nil {
			return nil, err
		}
		dead, loadErr := load(generation, reader, idx)
		closeErr := reader.Close()
		if loadErr != nil {
			return nil, loadErr
		}
		if closeErr != nil {
			return nil, errors.NewStorageError(
				closeErr, errors.ErrorCodeIO, "Failed to close segment after replay",
			).WithGeneration(generation)
		}
		uncompacted += dead
	}

	generation := uint64(1)
	if len(generations) > 0 {
		generation = generations[len(generations)-1] + 1
	}
	active, err := createSegment(config.Dir, generation)
	if err != nil {
		return nil, err
	}

	safePoint := new(atomic.Uint64)
	store := &KvStore{
		dir:       config.Dir,
		log:       config.Logger,
		idx:       idx,
		safePoint: safePoint,
		readers:   newSegmentReaders(config.Dir, safePoint),
		writer: &logWriter{
			dir:         config.Dir,
			log:         config.Logger,
			idx:         idx,
			safePoint:   safePoint,
			readers:     newSegmentReaders(config.Dir, safePoint),
			active:      active,
			generation:  generation,
			uncompacted: uncompacted,
			threshold:   threshold,
		},
	}

	config.Logger.Infow(
		"Store opened",
		"dir", config.Dir,
		"replayedSegments", len(generations),
		"activeGeneration", generation,
		"liveKeys", idx.Size(),
		"uncompactedBytes", uncompacted,
	)
	return store, nil
}

// Set stores a key-value pair. Durable on return: the record has been
// flushed to the OS before the index is updated.
func (s *KvStore) Set(key, value string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.writer.set(key, value)
}

// Get retrieves the value for key. The second return is false when the key
// is absent; an error indicates a corrupt indexed record.
func (s *KvStore) Get(key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrStoreClosed
	}

	for attempt := 0; ; attempt++ {
		loc, ok := s.idx.Lookup(key)
		if !ok {
			return "", false, nil
		}
		rec, err := s.readers.readAt(loc)
		if err != nil {
			// A lookup can race compaction: the entry resolved before the
			// repoint, the segment was deleted after. By now the index
			// holds the record's new location, so one retry settles it.
			if attempt == 0 && stdErrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", false, err
		}
		return rec.Set.Value, true, nil
	}
}

// Remove deletes a key. Fails with the key-not-found error kind if the key
// is absent; nothing is written in that case.
func (s *KvStore) Remove(key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.writer.remove(key)
}

// Close releases the active segment and every cached file handle. The store
// is unusable afterwards.
func (s *KvStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStoreClosed
	}

	var errs error
	errs = multierr.Append(errs, s.writer.close())
	errs = multierr.Append(errs, s.readers.Close())
	return errs
}
