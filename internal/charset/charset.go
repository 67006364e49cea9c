// Package charset converts between the bytes on the wire and the text the
// request parser and response builder work with.
package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var ErrUnknownEncoding = errors.New("unknown text encoding")

// Charset is a resolved text encoding. The zero value is not usable; build
// one with Lookup.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// Lookup resolves a WHATWG encoding label such as "utf-8", "latin1" or
// "windows-1252".
func Lookup(label string) (*Charset, error) {
	label = strings.TrimSpace(label)
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}

	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}

	return &Charset{name: name, enc: enc}, nil
}

// MustLookup is Lookup for labels known at compile time.
func MustLookup(label string) *Charset {
	c, err := Lookup(label)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the canonical name of the encoding
func (c *Charset) Name() string {
	return c.name
}

// Decode turns received bytes into text. Invalid sequences become U+FFFD.
func (c *Charset) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

// Encode turns text into bytes for the wire. Runes the encoding cannot
// represent are an error.
func (c *Charset) Encode(s string) ([]byte, error) {
	out, err := c.enc.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return []byte(out), nil
}
