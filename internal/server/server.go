package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Brownie44l1/docserver/internal/charset"
	"github.com/Brownie44l1/docserver/internal/request"
	"github.com/Brownie44l1/docserver/internal/resource"
	"github.com/Brownie44l1/docserver/internal/response"
)

// ErrServerClosed is returned by Serve after Close or Shutdown
var ErrServerClosed = errors.New("server closed")

// shutdownPollInterval is how often Shutdown nudges idle connections
const shutdownPollInterval = 50 * time.Millisecond

// Resolver produces the result for one parsed request
type Resolver interface {
	Resolve(req *request.Request) *resource.Result
}

type Server struct {
	cfg      Config
	resolver Resolver
	charset  *charset.Charset
	builder  *response.Builder
	metrics  *Metrics
	Logger   Logger

	closed atomic.Bool
	wg     sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
}

// New validates the config and builds a server. The resolver is wrapped
// with panic recovery. A nil logger discards logs.
func New(cfg Config, resolver Resolver, logger Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cs, err := charset.Lookup(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = &NullLogger{}
	}

	return &Server{
		cfg:      cfg,
		resolver: Chain(resolver, RecoveryMiddleware(logger)),
		charset:  cs,
		builder:  response.NewBuilder(cs, cfg.Realm),
		metrics:  NewMetrics(),
		Logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// ListenAndServe listens on the configured address and serves until closed
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on the listener, one goroutine each. It always
// returns a non-nil error; ErrServerClosed after Close or Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	s.listener = listener
	s.mu.Unlock()

	s.Logger.Info("listening", Field{"addr", listener.Addr().String()})

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.Logger.Warn("accept failed", Field{"error", err})
			continue
		}

		if !s.trackConn(conn) {
			conn.Close()
			continue
		}

		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

// Addr returns the listener address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting and drops every open connection immediately
func (s *Server) Close() error {
	err := s.stopListening()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	return err
}

// Shutdown stops accepting, lets in-flight responses finish and closes idle
// connections. If ctx ends first the remaining connections are dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.stopListening()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(shutdownPollInterval)
	defer ticker.Stop()

	for {
		// Wake connections blocked waiting for their next request
		s.mu.Lock()
		for conn := range s.conns {
			conn.SetReadDeadline(time.Now())
		}
		s.mu.Unlock()

		select {
		case <-done:
			return err
		case <-ctx.Done():
			s.Close()
			<-done
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats returns a snapshot of the server metrics
func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

func (s *Server) stopListening() error {
	s.closed.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// trackConn registers conn and adds it to wg while holding mu, so a
// concurrent Shutdown only waits after the Add.
func (s *Server) trackConn(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
