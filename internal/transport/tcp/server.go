// Package tcp serves the line-oriented trivia protocol over plain TCP,
// one independent session goroutine per accepted connection.
package tcp

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// SessionRunner plays one full game over rw and returns when the session
// ends. A non-nil error means the session aborted early.
type SessionRunner interface {
	Run(ctx context.Context, rw io.ReadWriter) error
}

// Server accepts connections and dispatches sessions, unbounded. Shutdown
// is cooperative: the listener closes first and in-flight sessions finish
// naturally.
type Server struct {
	addr        string
	runner      SessionRunner
	idleTimeout time.Duration

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer builds a server. idleTimeout bounds how long a client may sit
// silent at a prompt; zero disables the deadline.
func NewServer(addr string, runner SessionRunner, idleTimeout time.Duration) *Server {
	return &Server{addr: addr, runner: runner, idleTimeout: idleTimeout}
}

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until the listener closes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Printf("trivia server listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	var rw io.ReadWriter = conn
	if s.idleTimeout > 0 {
		rw = &idleConn{Conn: conn, timeout: s.idleTimeout}
	}
	if err := s.runner.Run(ctx, rw); err != nil {
		log.Printf("session %s aborted: %v", conn.RemoteAddr(), err)
	}
}

// Addr reports the bound address, for tests listening on :0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting and waits for in-flight sessions to end.
func (s *Server) Shutdown() {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	s.wg.Wait()
}

// idleConn arms a fresh read deadline before every read so a silent
// client eventually aborts its session instead of pinning a goroutine.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
