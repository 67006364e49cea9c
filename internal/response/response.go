package response

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Brownie44l1/docserver/internal/charset"
	"github.com/Brownie44l1/docserver/internal/headers"
)

// DefaultContentType is sent when the content has no type
const DefaultContentType = "text/plain"

// Content is a response payload and its metadata. A nil Body, empty Type or
// empty Encoding means absent.
type Content struct {
	Body     []byte
	Type     string
	Encoding string
}

// Builder turns a status and content into the exact bytes to send
type Builder struct {
	Charset *charset.Charset
	Realm   string
	Now     func() time.Time
}

// NewBuilder creates a builder that stamps responses with the current time
func NewBuilder(cs *charset.Charset, realm string) *Builder {
	return &Builder{
		Charset: cs,
		Realm:   realm,
		Now:     time.Now,
	}
}

// Build frames a full response: status line, headers, empty line, body.
// Error statuses with a default body ignore c.Body. The Connection header
// reflects keepAlive.
func (b *Builder) Build(code StatusCode, c Content, keepAlive bool) ([]byte, error) {
	code = Normalize(code)

	body := c.Body
	if text, ok := DefaultBody(code); ok {
		encoded, err := b.Charset.Encode(text)
		if err != nil {
			return nil, err
		}
		body = encoded
	}
	if body == nil {
		body = []byte{}
	}

	contentType := c.Type
	if contentType == "" {
		contentType = DefaultContentType
	}

	h := headers.NewHeaders()
	if code == StatusUnauthorized {
		h.Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q, charset=\"UTF-8\"", b.Realm))
	}
	h.Set("Date", b.Now().UTC().Format(http.TimeFormat))
	h.Set("Connection", connectionValue(keepAlive))
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	if c.Encoding != "" {
		h.Set("Content-Encoding", c.Encoding)
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, b.Charset)
	if err := w.WriteStatusLine(code); err != nil {
		return nil, err
	}
	if err := w.WriteHeaders(h); err != nil {
		return nil, err
	}
	if err := w.WriteBody(body); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func connectionValue(keepAlive bool) string {
	if keepAlive {
		return "keep-alive"
	}
	return "close"
}
