package kvstore

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/iamNilotpal/simplekv/pkg/errors"
)

// Log records are a tagged union serialized as self-delimiting JSON objects.
// The byte shapes are pinned by the on-disk format:
//
//	{"Set":{"key":"<k>","value":"<v>"}}
//	{"Remove":{"key":"<k>"}}
//
// Concatenated records carry no framing beyond JSON's own delimiting, so the
// encoder must emit neither trailing newlines nor HTML escapes.
type record struct {
	Set    *setCommand    `json:"Set,omitempty"`
	Remove *removeCommand `json:"Remove,omitempty"`
}

type setCommand struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type removeCommand struct {
	Key string `json:"key"`
}

func newSetRecord(key, value string) record {
	return record{Set: &setCommand{Key: key, Value: value}}
}

func newRemoveRecord(key string) record {
	return record{Remove: &removeCommand{Key: key}}
}

// encodeRecord appends the record's exact JSON encoding to w.
func encodeRecord(w io.Writer, rec record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeInternal, "Failed to encode log record")
	}

	// json.Encoder terminates every value with a newline the log format
	// does not carry.
	b := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	if _, err := w.Write(b); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to append log record")
	}
	return nil
}

// decodeRecord reads exactly one record from r.
func decodeRecord(r io.Reader) (record, error) {
	var rec record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return record{}, errors.NewBaseError(err, errors.ErrorCodeDecode, "Malformed log record")
	}
	return rec, nil
}
