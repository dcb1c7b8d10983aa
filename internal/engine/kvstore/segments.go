package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/iopos"
)

// Segment files are named "<n>.log" where n is the generation: an unsigned
// 64-bit number that increases monotonically over the store's lifetime.
const segmentSuffix = ".log"

// segmentPath returns the file path of the given generation.
func segmentPath(dir string, generation uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d%s", generation, segmentSuffix))
}

// listGenerations returns the generations of every segment file in dir in
// ascending order. Directory entries that don't match "<digits>.log" are
// ignored. The explicit sort keeps the result deterministic across
// platforms with differing directory orderings.
func listGenerations(dir string) ([]uint64, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to read segment directory",
		).WithPath(dir)
	}

	generations := make([]uint64, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), segmentSuffix) {
			continue
		}
		generation, err := strconv.ParseUint(strings.TrimSuffix(entry.Name(), segmentSuffix), 10, 64)
		if err != nil {
			continue
		}
		generations = append(generations, generation)
	}

	slices.Sort(generations)
	return generations, nil
}

// createSegment opens the generation's segment file for appending, creating
// it if absent. An existing file is reopened with the writer positioned at
// its end.
func createSegment(dir string, generation uint64) (*iopos.Writer, error) {
	path := segmentPath(dir, generation)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to create segment file",
		).WithGeneration(generation).WithPath(path)
	}

	writer, err := iopos.NewWriter(file)
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to position segment writer",
		).WithGeneration(generation).WithPath(path)
	}
	return writer, nil
}

// openSegment opens the given generation for reading.
func openSegment(dir string, generation uint64) (*iopos.Reader, error) {
	path := segmentPath(dir, generation)
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to open segment file",
		).WithGeneration(generation).WithPath(path)
	}

	reader, err := iopos.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to position segment reader",
		).WithGeneration(generation).WithPath(path)
	}
	return reader, nil
}
