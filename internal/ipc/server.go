package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/model"
)

// Handler runs one decoded request.
type Handler interface {
	Handle(ctx context.Context, req model.Request) model.Response
}

// Server accepts clients on a unix socket and serves them one at a time. Each
// line read from a client is one request; each request gets exactly one
// response line.
type Server struct {
	log     *slog.Logger
	path    string
	mode    os.FileMode
	handler Handler

	ln net.Listener

	mu     sync.Mutex
	active net.Conn
	closed bool
	once   sync.Once
}

func NewServer(log *slog.Logger, cfg config.SocketConfig, handler Handler) *Server {
	return &Server{
		log:     log.With(slog.String("socket", cfg.Path)),
		path:    cfg.Path,
		mode:    cfg.Mode.Perm(),
		handler: handler,
	}
}

// Listen binds the socket, replacing whatever a previous unclean shutdown left
// behind, and opens it to every local user.
func (s *Server) Listen() error {
	if err := os.Remove(s.path); err == nil {
		s.log.Info("removed stale socket")
	} else if !os.IsNotExist(err) {
		s.log.Warn("failed to remove existing socket, is another instance running?", sl.Err(err))
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to bind socket: %w", err)
	}
	s.ln = ln

	if err := os.Chmod(s.path, s.mode); err != nil {
		s.log.Error("failed to set socket permissions", sl.Err(err))
	}

	s.log.Info("listening")
	return nil
}

// Serve accepts connections until ctx is cancelled. Cancelling closes the
// listener, drops the connection being served and removes the socket file.
// Serve returns once that cleanup is done, even if a request is still stuck in
// the handler.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("serve called before listen")
	}

	stop := context.AfterFunc(ctx, s.shutdown)
	defer stop()
	defer s.shutdown()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept failed", sl.Err(err))
			continue
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.serveConn(ctx, conn)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			s.log.Warn("shutting down with a request in flight")
			return nil
		}
	}
}

// shutdown is safe to call more than once; later calls wait for the first to
// finish.
func (s *Server) shutdown() {
	s.once.Do(func() {
		s.log.Info("shutting down, removing socket")

		s.mu.Lock()
		s.closed = true
		if s.active != nil {
			s.active.Close()
		}
		s.mu.Unlock()

		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Warn("failed to close listener", sl.Err(err))
		}
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove socket", sl.Err(err))
		}
	})
}

// Close stops the listener without waiting for Serve.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	s.shutdown()
	return nil
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	log := s.log.With(slog.String("conn", uuid.New().String()))
	log.Debug("client connected")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		log.Debug("dropped client accepted during shutdown")
		return
	}
	s.active = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
		conn.Close()
		log.Debug("client disconnected")
	}()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if !s.respond(ctx, log, conn, line) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Warn("read failed", sl.Err(err))
			}
			return
		}
	}
}

// respond handles one line and reports whether the connection is still
// writable.
func (s *Server) respond(ctx context.Context, log *slog.Logger, w io.Writer, line []byte) bool {
	if isBlank(line) {
		return true
	}

	var resp model.Response
	var req model.Request
	if err := json.Unmarshal(line, &req); err != nil {
		log.Warn("bad request", sl.Err(err))
		resp = model.Error(err.Error())
	} else {
		log.Debug("request", slog.String("req", req.String()))
		resp = s.handler.Handle(ctx, req)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("failed to encode response", sl.Err(err))
		data, _ = json.Marshal(model.Error("failed to encode response: " + err.Error()))
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Debug("write failed", sl.Err(err))
		return false
	}
	return true
}

func isBlank(line []byte) bool {
	for _, c := range line {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
