package headers

import (
	"errors"
	"fmt"
	"strings"
)

// Separator splits a header line into name and value.
const Separator = ": "

var ErrMalformedHeader = errors.New("malformed header")

// Field is a single header line
type Field struct {
	Name  string
	Value string
}

// Headers is an ordered header collection. Names are case-sensitive and a
// name appears at most once: setting an existing name replaces its value in
// place.
type Headers struct {
	index  map[string]int
	fields []Field
}

func NewHeaders() *Headers {
	return &Headers{
		index: make(map[string]int),
	}
}

// Get returns the value for a header
func (h *Headers) Get(name string) (string, bool) {
	i, ok := h.index[name]
	if !ok {
		return "", false
	}
	return h.fields[i].Value, true
}

// Set replaces the value for a header, keeping its position
func (h *Headers) Set(name, value string) {
	if i, ok := h.index[name]; ok {
		h.fields[i].Value = value
		return
	}
	h.index[name] = len(h.fields)
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Len returns the number of distinct headers
func (h *Headers) Len() int {
	return len(h.fields)
}

// Fields returns the headers in insertion order. The slice must not be
// modified.
func (h *Headers) Fields() []Field {
	return h.fields
}

// Parse adds every line as a header. It stops at the first malformed line.
func (h *Headers) Parse(lines []string) error {
	for _, line := range lines {
		name, value, err := ParseLine(line)
		if err != nil {
			return err
		}
		h.Set(name, value)
	}
	return nil
}

// ParseLine splits "Name: Value" on the first ": ". Name and value are kept
// exactly as received.
func ParseLine(line string) (string, string, error) {
	name, value, ok := strings.Cut(line, Separator)
	if !ok {
		return "", "", fmt.Errorf("%w: no %q in %q", ErrMalformedHeader, Separator, line)
	}
	return name, value, nil
}
