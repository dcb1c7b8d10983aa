// Package engine defines the storage interface the server dispatches to and
// the sentinel file that pins a working directory to one engine.
package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/iamNilotpal/simplekv/pkg/errors"
)

// Engine is the contract every storage backend satisfies. Handles are safe
// for concurrent callers.
type Engine interface {
	// Set stores a key-value pair, durable on return.
	Set(key, value string) error

	// Get retrieves the value for key; found is false when the key is absent.
	Get(key string) (value string, found bool, err error)

	// Remove deletes a key, failing with the key-not-found kind if absent.
	Remove(key string) error

	// Close releases all resources held by the engine.
	Close() error
}

// Engine names accepted by the server.
const (
	NameKvStore = "kvstore"
	NameSled    = "sled"
)

// sentinelFile pins the working directory to one engine. Opening a
// directory with a different engine than the one that wrote its files would
// misread them.
const sentinelFile = "engine"

// ValidName reports whether name is a known engine.
func ValidName(name string) bool {
	return name == NameKvStore || name == NameSled
}

// CurrentEngine returns the engine name recorded in dir's sentinel file, or
// "" when no sentinel exists. Surrounding whitespace is trimmed but the name
// is not validated; callers decide how to treat an unknown name.
func CurrentEngine(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, sentinelFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to read engine sentinel",
		).WithPath(filepath.Join(dir, sentinelFile))
	}
	return strings.TrimSpace(string(data)), nil
}

// RecordEngine pins dir to the given engine. The write is an atomic replace
// so a crash mid-write cannot leave a torn sentinel.
func RecordEngine(dir, name string) error {
	path := filepath.Join(dir, sentinelFile)
	if err := atomic.WriteFile(path, strings.NewReader(name)); err != nil {
		return errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to record engine sentinel",
		).WithPath(path)
	}
	return nil
}
