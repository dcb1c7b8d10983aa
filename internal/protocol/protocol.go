// Package protocol defines the request and response types of the wire
// protocol. Messages are framed only by JSON's self-delimiting parsing, and
// the byte shapes are pinned:
//
//	{"Get":{"key":"<k>"}}  {"Set":{"key":"<k>","value":"<v>"}}  {"Remove":{"key":"<k>"}}
//	{"Ok":<payload>} | {"Err":"<msg>"}
//
// A response carries exactly one of the two variants, so the types here
// implement their own JSON marshaling rather than leaning on omitempty,
// which cannot distinguish {"Ok":null} from an absent field.
package protocol

import (
	"bytes"
	"encoding/json"
	"io"
)

type GetRequest struct {
	Key string `json:"key"`
}

type SetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type RemoveRequest struct {
	Key string `json:"key"`
}

// Request is the tagged union clients send; exactly one field is set.
type Request struct {
	Get    *GetRequest    `json:"Get,omitempty"`
	Set    *SetRequest    `json:"Set,omitempty"`
	Remove *RemoveRequest `json:"Remove,omitempty"`
}

// GetResponse answers a Get. A nil Value with an empty Err means the key
// was absent and serializes as {"Ok":null}.
type GetResponse struct {
	Value *string
	Err   string
}

// SetResponse answers a Set; success serializes as {"Ok":null}.
type SetResponse struct {
	Err string
}

// RemoveResponse answers a Remove; success serializes as {"Ok":null}.
type RemoveResponse struct {
	Err string
}

type okEnvelope struct {
	Ok any `json:"Ok"`
}

type errEnvelope struct {
	Err string `json:"Err"`
}

// envelope is the shape every response decodes through. Telling {"Ok":null}
// apart from {"Err":...} needs the raw message, not omitempty.
type envelope struct {
	Ok  json.RawMessage `json:"Ok"`
	Err *string         `json:"Err"`
}

func (r GetResponse) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return marshalNoEscape(errEnvelope{Err: r.Err})
	}
	return marshalNoEscape(okEnvelope{Ok: r.Value})
}

func (r *GetResponse) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Err != nil {
		*r = GetResponse{Err: *env.Err}
		return nil
	}
	if len(env.Ok) == 0 || bytes.Equal(env.Ok, []byte("null")) {
		*r = GetResponse{}
		return nil
	}
	var value string
	if err := json.Unmarshal(env.Ok, &value); err != nil {
		return err
	}
	*r = GetResponse{Value: &value}
	return nil
}

func (r SetResponse) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return marshalNoEscape(errEnvelope{Err: r.Err})
	}
	return marshalNoEscape(okEnvelope{Ok: nil})
}

func (r *SetResponse) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Err != nil {
		*r = SetResponse{Err: *env.Err}
		return nil
	}
	*r = SetResponse{}
	return nil
}

func (r RemoveResponse) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return marshalNoEscape(errEnvelope{Err: r.Err})
	}
	return marshalNoEscape(okEnvelope{Ok: nil})
}

func (r *RemoveResponse) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Err != nil {
		*r = RemoveResponse{Err: *env.Err}
		return nil
	}
	*r = RemoveResponse{}
	return nil
}

// Write appends v's exact JSON encoding to w: no HTML escaping, no trailing
// newline, matching the pinned wire format.
func Write(w io.Writer, v any) error {
	b, err := marshalNoEscape(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
