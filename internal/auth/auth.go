// Package auth authenticates the Neucore host when it calls the plugin over
// HTTP.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type Scope string

const ScopeHost Scope = "neucore.plugin.slack"

// DefaultExpiry is how long a host token is valid unless told otherwise.
const DefaultExpiry = time.Hour * 24 * 365

type CreateTokenOpts struct {
	// Subject names the host, usually its base url.
	Subject   string
	JWTKey    []byte
	ExpiresIn time.Duration
	Now       *time.Time
}

// CreateHostToken generates a token the host sends as a bearer token.
func CreateHostToken(opts *CreateTokenOpts) (string, error) {
	if len(opts.JWTKey) == 0 {
		return "", errors.New("jwt key is required")
	}
	if len(opts.Subject) == 0 {
		return "", errors.New("token subject is required")
	}
	expiresIn := opts.ExpiresIn
	if expiresIn == 0 {
		expiresIn = DefaultExpiry
	}
	var now time.Time
	if opts.Now != nil {
		now = *opts.Now
	} else {
		now = time.Now().UTC()
	}
	claims := jwt.MapClaims{
		"scope": ScopeHost,
		"sub":   opts.Subject,
		"iat":   now.Unix(),
		"exp":   now.Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(opts.JWTKey)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return signed, nil
}
