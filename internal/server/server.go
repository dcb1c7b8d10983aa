// Package server exposes an engine over TCP. Each accepted connection is
// handed to the worker pool; the worker loops over the connection's
// requests, dispatches them to the engine, and answers in order. Engine
// errors are stringified into the response's Err variant and the connection
// stays alive for the next request.
package server

import (
	"bufio"
	"encoding/json"
	stdErrors "errors"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/iamNilotpal/simplekv/internal/engine"
	"github.com/iamNilotpal/simplekv/internal/protocol"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/pool"
)

// KvServer serves the framed JSON protocol over TCP.
type KvServer struct {
	engine engine.Engine
	pool   *pool.Pool
	log    *zap.SugaredLogger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// New creates a server dispatching to the given engine on the given pool.
func New(eng engine.Engine, p *pool.Pool, log *zap.SugaredLogger) *KvServer {
	return &KvServer{engine: eng, pool: p, log: log, conns: make(map[net.Conn]struct{})}
}

// Run listens on addr and serves until the listener fails.
func (s *KvServer) Run(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeIO, "Failed to listen on "+addr)
	}
	return s.Serve(listener)
}

// Serve accepts connections until the listener is closed. Closing the
// listener also tears down live connections so their workers can drain.
func (s *KvServer) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if stdErrors.Is(err, net.ErrClosed) {
				s.closeConns()
				return nil
			}
			return errors.NewBaseError(err, errors.ErrorCodeIO, "Failed to accept connection")
		}
		s.track(conn)
		s.pool.Spawn(func() { s.serve(conn) })
	}
}

func (s *KvServer) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *KvServer) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *KvServer) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// serve handles one connection's request loop.
func (s *KvServer) serve(conn net.Conn) {
	defer func() {
		s.untrack(conn)
		_ = conn.Close()
	}()

	peer := conn.RemoteAddr().String()
	decoder := json.NewDecoder(bufio.NewReader(conn))
	writer := bufio.NewWriter(conn)

	for {
		var req protocol.Request
		if err := decoder.Decode(&req); err != nil {
			if !stdErrors.Is(err, io.EOF) && !stdErrors.Is(err, net.ErrClosed) {
				s.log.Errorw("Failed to decode request", "peer", peer, "error", err)
			}
			return
		}

		resp := s.dispatch(&req)
		if resp == nil {
			s.log.Errorw("Malformed request without a known variant", "peer", peer)
			return
		}
		if err := protocol.Write(writer, resp); err != nil {
			s.log.Errorw("Failed to encode response", "peer", peer, "error", err)
			return
		}
		if err := writer.Flush(); err != nil {
			s.log.Errorw("Failed to write response", "peer", peer, "error", err)
			return
		}
	}
}

// dispatch runs one request against the engine and shapes the response.
// Engine failures travel to the client as strings; they are not fatal here.
func (s *KvServer) dispatch(req *protocol.Request) any {
	switch {
	case req.Get != nil:
		value, found, err := s.engine.Get(req.Get.Key)
		if err != nil {
			return protocol.GetResponse{Err: err.Error()}
		}
		if !found {
			return protocol.GetResponse{}
		}
		return protocol.GetResponse{Value: &value}

	case req.Set != nil:
		if err := s.engine.Set(req.Set.Key, req.Set.Value); err != nil {
			return protocol.SetResponse{Err: err.Error()}
		}
		return protocol.SetResponse{}

	case req.Remove != nil:
		if err := s.engine.Remove(req.Remove.Key); err != nil {
			return protocol.RemoveResponse{Err: err.Error()}
		}
		return protocol.RemoveResponse{}

	default:
		return nil
	}
}
