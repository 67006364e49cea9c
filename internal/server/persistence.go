package server

import (
	"github.com/Brownie44l1/docserver/internal/resource"
)

// shouldCloseConnection determines if connection should be closed after this request
func (s *Server) shouldCloseConnection(res *resource.Result) bool {
	// The client asked to close, or the request could not be framed
	if !res.KeepAlive {
		return true
	}

	// Shutting down: finish this response, take no more
	return s.closed.Load()
}
