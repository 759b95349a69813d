package jwtx

import (
	"fmt"
	"slices"
	"time"
)

// Expectation is what a call site demands of a token.
type Expectation struct {
	Issuer   string
	Audience string
	Type     TokenType
}

// Validate checks decoded claims against the expectation at time now.
// Checks run in a fixed order (expiry, type, issuer, audience) and the first
// failure is returned. The claims are returned untouched on success.
func Validate(c Claims, want Expectation, now time.Time) (Claims, error) {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return Claims{}, ErrExpired
	}
	if c.Type != want.Type {
		return Claims{}, fmt.Errorf("%w: got %q, want %q", ErrTokenType, c.Type, want.Type)
	}
	if c.Issuer != want.Issuer {
		return Claims{}, ErrIssuer
	}
	if !slices.Contains(c.Audience, want.Audience) {
		return Claims{}, ErrAudience
	}
	return c, nil
}

// Verifier decodes and validates tokens against one configuration.
type Verifier struct {
	codec *Codec
	cfg   Config
}

// NewVerifier validates the configuration once; the returned Verifier is
// immutable and safe for concurrent use.
func NewVerifier(cfg Config) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Verifier{codec: codec, cfg: cfg}, nil
}

// Verify runs the codec then the validator for a token of the given type.
func (v *Verifier) Verify(token string, typ TokenType, now time.Time) (Claims, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return Claims{}, err
	}
	return Validate(claims, v.cfg.Expectation(typ), now)
}
