package resource

import (
	"errors"
	"strings"
)

// Config is the resolver's read-only view of the server settings
type Config struct {
	// DocumentRoot is the directory files are served from
	DocumentRoot string
	// DefaultDocument is served for "/" and for directory targets
	DefaultDocument string
	// PrivatePrefix marks targets that need credentials
	PrivatePrefix string

	Username string
	Password string

	// TokenSecret enables "Authorization: Bearer <jwt>" on the private
	// area when set. Tokens must be HS256 and carry sub == Username.
	TokenSecret string
}

func DefaultConfig() Config {
	return Config{
		DocumentRoot:    "./htdocs",
		DefaultDocument: "/index.html",
		PrivatePrefix:   "/private/",
		Username:        "admin",
		Password:        "admin",
	}
}

// Validate checks the fields the resolver cannot work without
func (c Config) Validate() error {
	if c.DocumentRoot == "" {
		return errors.New("document root is required")
	}
	if !strings.HasPrefix(c.DefaultDocument, "/") {
		return errors.New("default document must start with /")
	}
	if !strings.HasPrefix(c.PrivatePrefix, "/") {
		return errors.New("private prefix must start with /")
	}
	return nil
}
