package resource

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Brownie44l1/docserver/internal/request"
)

const bearerScheme = "Bearer"

// basicCredentials is what a client sends after "Basic "
func basicCredentials(username, password string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(username + ":" + password)))
}

// authorized checks the Authorization header of a private request. The
// header must be "<scheme> <credentials>". Bearer credentials are checked as
// a JWT when a token secret is configured; any other scheme is compared
// against the configured Basic credentials.
func (r *Resolver) authorized(req *request.Request) bool {
	value, ok := req.Headers.Get("Authorization")
	if !ok {
		return false
	}

	fields := strings.Fields(value)
	if len(fields) != 2 {
		return false
	}
	scheme, credentials := fields[0], fields[1]

	if scheme == bearerScheme && r.cfg.TokenSecret != "" {
		return r.validToken(credentials)
	}

	return subtle.ConstantTimeCompare([]byte(credentials), r.credentials) == 1
}

func (r *Resolver) validToken(raw string) bool {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(r.cfg.TokenSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(r.cfg.Username),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	return err == nil && token.Valid
}
