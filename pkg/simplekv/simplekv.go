// Package simplekv provides an embeddable log-structured key/value store.
// It combines an in-memory index with an append-only log of numbered
// segment files, giving fast reads and writes with periodic compaction of
// overwritten data. The same engine backs the networked kv-server; this
// package is the entry point for using it as a library.
package simplekv

import (
	"github.com/iamNilotpal/simplekv/internal/engine/kvstore"
	"github.com/iamNilotpal/simplekv/pkg/logger"
	"github.com/iamNilotpal/simplekv/pkg/options"
)

// Store is an open instance of the key/value store.
type Store struct {
	engine  *kvstore.KvStore
	options *options.Options
}

// Open creates or resumes a store. The service name tags log output; the
// data directory and compaction threshold come from the options.
func Open(service string, opts ...options.OptionFunc) (*Store, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := kvstore.Open(&kvstore.Config{
		Dir:                 defaultOpts.DataDir,
		Logger:              log,
		CompactionThreshold: defaultOpts.CompactionThreshold,
	})
	if err != nil {
		return nil, err
	}

	return &Store{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair, replacing any previous value.
// The operation is durable on return.
func (s *Store) Set(key, value string) error {
	return s.engine.Set(key, value)
}

// Get retrieves the value associated with the given key; found is false
// when the key is absent.
func (s *Store) Get(key string) (value string, found bool, err error) {
	return s.engine.Get(key)
}

// Remove deletes a key-value pair. Removing an absent key fails with the
// key-not-found error kind.
func (s *Store) Remove(key string) error {
	return s.engine.Remove(key)
}

// Close gracefully shuts the store down, releasing every file handle.
func (s *Store) Close() error {
	return s.engine.Close()
}
