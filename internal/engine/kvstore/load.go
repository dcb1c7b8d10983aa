package kvstore

import (
	"encoding/json"
	stdErrors "errors"
	"io"

	"github.com/iamNilotpal/simplekv/internal/index"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/iopos"
)

// load replays one segment into the index, returning the number of dead
// bytes the segment contributed. Records are read sequentially through the
// self-delimiting JSON stream; the decoder's input offset yields each
// record's byte range without re-measuring it.
//
// Recovery is strict: a truncated or malformed trailing record fails the
// replay rather than being silently dropped.
func load(generation uint64, reader *iopos.Reader, idx *index.Index) (uint64, error) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return 0, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to rewind segment for replay",
		).WithGeneration(generation)
	}

	decoder := json.NewDecoder(reader)
	var uncompacted uint64
	var start int64

	for {
		var rec record
		if err := decoder.Decode(&rec); err != nil {
			if stdErrors.Is(err, io.EOF) {
				break
			}
			return 0, errors.NewStorageError(
				err, errors.ErrorCodeSegmentCorrupted, "Malformed record during replay",
			).WithGeneration(generation).WithOffset(start)
		}
		end := decoder.InputOffset()

		switch {
		case rec.Set != nil:
			loc := index.CommandIndex{Generation: generation, Start: start, Len: end - start}
			if old, existed := idx.Put(rec.Set.Key, loc); existed {
				uncompacted += uint64(old.Len)
			}

		case rec.Remove != nil:
			if old, existed := idx.Delete(rec.Remove.Key); existed {
				uncompacted += uint64(old.Len)
			}
			// The Remove record itself is dead weight: once the key's Set
			// records are compacted away there is nothing left to negate.
			uncompacted += uint64(end - start)

		default:
			return 0, errors.NewStorageError(
				nil, errors.ErrorCodeSegmentCorrupted, "Record is neither Set nor Remove",
			).WithGeneration(generation).WithOffset(start)
		}

		start = end
	}

	return uncompacted, nil
}
