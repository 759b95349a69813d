package jwtx

import (
	"fmt"
	"time"
)

// TokenPair is what login and refresh hand back. Both tokens are always
// issued together.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`

	// Token ids are kept server side for session bookkeeping.
	AccessTokenID  string `json:"-"`
	RefreshTokenID string `json:"-"`
}

// Issuer signs access/refresh pairs.
type Issuer struct {
	codec *Codec
	cfg   Config
	now   func() time.Time
}

// NewIssuer validates the configuration once. A non-nil error wraps
// ErrConfiguration and must stop the process from serving traffic.
func NewIssuer(cfg Config) (*Issuer, error) {
	return NewIssuerWithClock(cfg, time.Now)
}

// NewIssuerWithClock is NewIssuer with an injectable clock for tests.
func NewIssuerWithClock(cfg Config, now func() time.Time) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Issuer{codec: codec, cfg: cfg, now: now}, nil
}

// AccessTTL reports the configured access lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// Issue builds and signs both tokens for the identity. It has no side
// effects; persisting session metadata is up to the caller.
func (i *Issuer) Issue(subject, email string, role Role) (TokenPair, error) {
	if subject == "" {
		return TokenPair{}, fmt.Errorf("jwtx: issue: empty subject")
	}
	if !role.Valid() {
		return TokenPair{}, fmt.Errorf("jwtx: issue: %w", ErrUnknownRole)
	}

	now := i.now().UTC()

	access := NewClaims(subject, email, role, TokenAccess,
		i.cfg.Issuer, i.cfg.Audience, i.cfg.AccessTTL, now)
	refresh := NewClaims(subject, email, role, TokenRefresh,
		i.cfg.Issuer, i.cfg.Audience, i.cfg.RefreshTTL, now)

	accessToken, err := i.codec.Encode(access)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := i.codec.Encode(refresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  access.ExpiresAtTime(),
		RefreshExpiresAt: refresh.ExpiresAtTime(),
		AccessTokenID:    access.ID,
		RefreshTokenID:   refresh.ID,
	}, nil
}
