package jwtx

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")

	ErrExpired   = errors.New("jwtx: token expired")
	ErrTokenType = errors.New("jwtx: token type mismatch")
	ErrIssuer    = errors.New("jwtx: issuer mismatch")
	ErrAudience  = errors.New("jwtx: audience mismatch")

	ErrInsufficientRole = errors.New("jwtx: insufficient role")
	ErrUnknownRole      = errors.New("jwtx: unknown role")

	// ErrConfiguration is fatal at startup and never returned per request.
	ErrConfiguration = errors.New("jwtx: invalid configuration")
)

// ConfigError describes which setting made the token configuration unusable.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("jwtx: invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformed, reason)
}
