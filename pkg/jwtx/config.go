package jwtx

import (
	"time"
	"unicode/utf8"
)

// MinSecretLength is the shortest HMAC secret we accept, in characters.
const MinSecretLength = 32

// Config is the process-wide token configuration. It is loaded once at
// startup and only read afterwards, so it is safe to share between
// goroutines.
type Config struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Validate reports the first setting that would make issuance or
// verification unsafe. Callers must treat a non-nil result as fatal.
func (c Config) Validate() error {
	if utf8.RuneCountInString(c.Secret) < MinSecretLength {
		return &ConfigError{Field: "secret", Reason: "must be at least 32 characters"}
	}
	if c.Issuer == "" {
		return &ConfigError{Field: "issuer", Reason: "must not be empty"}
	}
	if c.Audience == "" {
		return &ConfigError{Field: "audience", Reason: "must not be empty"}
	}
	if c.AccessTTL < time.Second {
		return &ConfigError{Field: "access_ttl", Reason: "must be at least 1s"}
	}
	if c.RefreshTTL < c.AccessTTL {
		return &ConfigError{Field: "refresh_ttl", Reason: "must not be shorter than access_ttl"}
	}
	return nil
}

// Expectation returns what the validator should demand of tokens of the
// given type under this configuration.
func (c Config) Expectation(typ TokenType) Expectation {
	return Expectation{
		Issuer:   c.Issuer,
		Audience: c.Audience,
		Type:     typ,
	}
}
