package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/Brownie44l1/docserver/internal/request"
	"github.com/Brownie44l1/docserver/internal/resource"
	"github.com/Brownie44l1/docserver/internal/response"
)

// serveConn handles all requests on a single connection. Each read is one
// request; the loop ends on idle timeout, EOF, a transport error, a
// non-keep-alive result or server shutdown.
func (s *Server) serveConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	s.metrics.ConnectionsTotal.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)

	defer func() {
		s.untrackConn(conn)
		conn.Close()
		s.Logger.Info("connection closed", Field{"remote", remote})
	}()

	s.Logger.Info("connection accepted", Field{"remote", remote})

	reader := NewBufferedReader(s.cfg.BufferSize)
	defer reader.Close()

	for !s.closed.Load() {
		n, err := s.readRequest(conn, reader.Buffer())
		if err != nil {
			s.logReadEnd(remote, err)
			return
		}

		start := time.Now()
		req, res := s.process(reader.Buffer()[:n], remote)
		if s.closed.Load() {
			res.KeepAlive = false
		}

		if err := s.respond(conn, res); err != nil {
			s.Logger.Error("write failed",
				Field{"remote", remote},
				Field{"error", err},
			)
			return
		}

		duration := time.Since(start)
		s.metrics.RecordRequest(res.Status, duration)
		s.logRequest(remote, req, res, duration)

		if s.shouldCloseConnection(res) {
			return
		}
	}
}

// readRequest waits up to the idle timeout for the next request's bytes
func (s *Server) readRequest(conn net.Conn, buf []byte) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
		return 0, err
	}

	n, err := conn.Read(buf)
	if n > 0 {
		return n, nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

// process decodes, parses and resolves one request. A request that cannot
// be parsed gets 400 and closes the connection; req is nil then.
func (s *Server) process(data []byte, remote string) (*request.Request, *resource.Result) {
	text, err := s.charset.Decode(data)
	if err != nil {
		s.Logger.Warn("undecodable request", Field{"remote", remote}, Field{"error", err})
		return nil, &resource.Result{Status: response.StatusBadRequest}
	}

	req, err := request.Parse(text)
	if err != nil {
		s.Logger.Warn("malformed request", Field{"remote", remote}, Field{"error", err.Error()})
		return nil, &resource.Result{Status: response.StatusBadRequest}
	}

	s.Logger.Debug("request received",
		Field{"remote", remote},
		Field{"method", req.Method},
		Field{"path", req.Path},
		Field{"headers", req.Headers.Len()},
	)

	return req, s.handleRequest(req)
}

// handleRequest runs the resolver chain; a nil result becomes a 500
func (s *Server) handleRequest(req *request.Request) *resource.Result {
	res := s.resolver.Resolve(req)
	if res == nil {
		s.Logger.Error("resolver returned no result", Field{"path", req.Path})
		return &resource.Result{Status: response.StatusInternalServerError}
	}
	return res
}

// respond builds the response and writes every byte of it
func (s *Server) respond(conn net.Conn, res *resource.Result) error {
	out, err := s.builder.Build(res.Status, res.Content, res.KeepAlive)
	if err != nil {
		s.Logger.Error("build response failed", Field{"error", err})
		res.Status = response.StatusInternalServerError
		res.KeepAlive = false
		if out, err = s.builder.Build(res.Status, response.Content{}, false); err != nil {
			return err
		}
	}

	if s.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}

	totalWritten := 0
	for totalWritten < len(out) {
		n, err := conn.Write(out[totalWritten:])
		if err != nil {
			return err
		}
		totalWritten += n
	}
	return nil
}

// logReadEnd separates normal endings from transport errors
func (s *Server) logReadEnd(remote string, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.Logger.Debug("peer closed connection", Field{"remote", remote})
	case errors.As(err, &netErr) && netErr.Timeout():
		// Shutdown expires the deadline itself
		if s.closed.Load() {
			s.Logger.Debug("closed for shutdown", Field{"remote", remote})
			return
		}
		s.metrics.IdleTimeouts.Add(1)
		s.Logger.Debug("idle timeout", Field{"remote", remote})
	default:
		s.Logger.Warn("read failed", Field{"remote", remote}, Field{"error", err})
	}
}

func (s *Server) logRequest(remote string, req *request.Request, res *resource.Result, d time.Duration) {
	method, path := "", ""
	if req != nil {
		method, path = req.Method, req.Path
	}
	s.Logger.Info("request handled",
		Field{"remote", remote},
		Field{"method", method},
		Field{"path", path},
		Field{"status", res.Status.Code()},
		Field{"keep_alive", res.KeepAlive},
		Field{"duration_ms", d.Milliseconds()},
	)
}
