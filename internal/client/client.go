// Package client implements the blocking request/response client for the
// wire protocol.
package client

import (
	"bufio"
	"encoding/json"
	"net"

	"github.com/iamNilotpal/simplekv/internal/protocol"
	"github.com/iamNilotpal/simplekv/pkg/errors"
)

// KvClient is a connection to a kv-server. Requests are answered in order;
// the client is not safe for concurrent use.
type KvClient struct {
	conn    net.Conn
	decoder *json.Decoder
	writer  *bufio.Writer
}

// Connect dials the server at addr.
func Connect(addr string) (*KvClient, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.NewBaseError(err, errors.ErrorCodeIO, "Failed to connect to "+addr)
	}
	return &KvClient{
		conn:    conn,
		decoder: json.NewDecoder(bufio.NewReader(conn)),
		writer:  bufio.NewWriter(conn),
	}, nil
}

// Get fetches the value for key; found is false when the key is absent.
func (c *KvClient) Get(key string) (string, bool, error) {
	if err := c.send(protocol.Request{Get: &protocol.GetRequest{Key: key}}); err != nil {
		return "", false, err
	}

	var resp protocol.GetResponse
	if err := c.decoder.Decode(&resp); err != nil {
		return "", false, errors.NewBaseError(err, errors.ErrorCodeDecode, "Malformed Get response")
	}
	if resp.Err != "" {
		return "", false, errors.NewBaseError(nil, errors.ErrorCodeRemote, resp.Err)
	}
	if resp.Value == nil {
		return "", false, nil
	}
	return *resp.Value, true, nil
}

// Set stores a key-value pair on the server.
func (c *KvClient) Set(key, value string) error {
	if err := c.send(protocol.Request{Set: &protocol.SetRequest{Key: key, Value: value}}); err != nil {
		return err
	}

	var resp protocol.SetResponse
	if err := c.decoder.Decode(&resp); err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeDecode, "Malformed Set response")
	}
	if resp.Err != "" {
		return errors.NewBaseError(nil, errors.ErrorCodeRemote, resp.Err)
	}
	return nil
}

// Remove deletes a key on the server. Removing an absent key surfaces the
// server's "Key not found" error.
func (c *KvClient) Remove(key string) error {
	if err := c.send(protocol.Request{Remove: &protocol.RemoveRequest{Key: key}}); err != nil {
		return err
	}

	var resp protocol.RemoveResponse
	if err := c.decoder.Decode(&resp); err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeDecode, "Malformed Remove response")
	}
	if resp.Err != "" {
		return errors.NewBaseError(nil, errors.ErrorCodeRemote, resp.Err)
	}
	return nil
}

// Close tears down the connection.
func (c *KvClient) Close() error {
	return c.conn.Close()
}

func (c *KvClient) send(req protocol.Request) error {
	if err := protocol.Write(c.writer, req); err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeIO, "Failed to encode request")
	}
	if err := c.writer.Flush(); err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeIO, "Failed to send request")
	}
	return nil
}
