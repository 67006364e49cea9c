package response

import (
	"fmt"
	"io"

	"github.com/Brownie44l1/docserver/internal/charset"
	"github.com/Brownie44l1/docserver/internal/headers"
)

const crlf = "\r\n"

// writerState tracks what's been written so far
type writerState int

const (
	stateStart writerState = iota
	stateStatusWritten
	stateHeadersWritten
	stateBodyWritten
)

// Writer writes one HTTP response to an io.Writer. Status line and headers
// are encoded with the writer's charset; the body is written as given.
type Writer struct {
	w     io.Writer
	cs    *charset.Charset
	state writerState
}

// NewWriter creates a new response writer
func NewWriter(w io.Writer, cs *charset.Charset) *Writer {
	return &Writer{
		w:     w,
		cs:    cs,
		state: stateStart,
	}
}

// WriteStatusLine writes the HTTP status line
func (w *Writer) WriteStatusLine(code StatusCode) error {
	if w.state != stateStart {
		return fmt.Errorf("status line already written")
	}

	if err := w.writeText("HTTP/1.1 " + StatusText(code) + crlf); err != nil {
		return err
	}

	w.state = stateStatusWritten
	return nil
}

// WriteHeaders writes all headers in order, then the empty line
func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != stateStatusWritten {
		return fmt.Errorf("must write status line before headers")
	}

	for _, f := range h.Fields() {
		if err := w.writeText(f.Name + headers.Separator + f.Value + crlf); err != nil {
			return err
		}
	}

	if err := w.writeText(crlf); err != nil {
		return err
	}

	w.state = stateHeadersWritten
	return nil
}

// WriteBody writes the complete response body
func (w *Writer) WriteBody(data []byte) error {
	if w.state != stateHeadersWritten {
		return fmt.Errorf("must write headers before body")
	}

	if len(data) > 0 {
		if _, err := w.w.Write(data); err != nil {
			return err
		}
	}

	w.state = stateBodyWritten
	return nil
}

func (w *Writer) writeText(s string) error {
	b, err := w.cs.Encode(s)
	if err != nil {
		return err
	}
	_, err = w.w.Write(b)
	return err
}
