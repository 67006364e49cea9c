package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/Brownie44l1/docserver/internal/charset"
)

// Config holds the connection-level settings. It is read-only once the
// server is built.
type Config struct {
	Addr string

	// BufferSize is the most bytes one request may take; a single read of
	// this size is treated as one request.
	BufferSize int

	// IdleTimeout is how long a connection may wait for the next request
	IdleTimeout time.Duration

	// WriteTimeout bounds writing one response. Zero means no limit.
	WriteTimeout time.Duration

	// Encoding names the text encoding of requests and response headers
	Encoding string

	// Realm is sent in WWW-Authenticate on 401 responses
	Realm string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		BufferSize:   4096,
		IdleTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		Encoding:     "utf-8",
		Realm:        "Access Private Folder",
	}
}

func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be positive")
	}
	if c.WriteTimeout < 0 {
		return errors.New("write timeout must not be negative")
	}
	if _, err := charset.Lookup(c.Encoding); err != nil {
		return err
	}
	return nil
}
