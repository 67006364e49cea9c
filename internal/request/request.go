package request

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/docserver/internal/headers"
)

// ErrMalformedRequest is wrapped by every parse error so callers can answer
// 400 without caring which part was broken.
var ErrMalformedRequest = errors.New("malformed request")

const (
	MethodGet  = "GET"
	MethodHead = "HEAD"
	MethodPost = "POST"
)

// Request is one parsed HTTP request
type Request struct {
	Method    string
	Path      string
	Version   string
	Headers   *headers.Headers
	Body      string
	KeepAlive bool
}

// Parse parses one request from decoded text. The text must hold exactly one
// request: a request line, header lines, an empty line and at most one body
// line. Anything after the body line is ignored.
func Parse(text string) (*Request, error) {
	req := &Request{
		Headers: headers.NewHeaders(),
	}

	p := newParser(splitLines(text))
	if err := p.run(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}

	req.KeepAlive = !req.WantsClose()
	return req, nil
}

// Header returns a request header, or "" when absent
func (r *Request) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// WantsClose reports whether the client sent exactly "Connection: close"
func (r *Request) WantsClose() bool {
	v, ok := r.Headers.Get("Connection")
	return ok && v == "close"
}

// IsHead reports whether this is a HEAD request
func (r *Request) IsHead() bool {
	return r.Method == MethodHead
}
