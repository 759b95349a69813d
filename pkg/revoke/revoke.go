// Package revoke answers whether a token id has been revoked and applies a
// configurable policy when the answer cannot be obtained.
package revoke

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrRevoked is returned when the token id is on the deny list.
	ErrRevoked = errors.New("revoke: token revoked")

	// ErrUnavailable is returned when the deny list could not be consulted
	// and the policy is fail-closed.
	ErrUnavailable = errors.New("revoke: revocation store unavailable")
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 250 * time.Millisecond

// Store is a deny list of token ids. Entries only need to live until the
// token they name would have expired anyway.
type Store interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Policy decides what a failed lookup means.
type Policy int

const (
	// FailClosed rejects the request when the store cannot answer.
	FailClosed Policy = iota
	// FailOpen lets the request through when the store cannot answer.
	FailOpen
)

func (p Policy) String() string {
	if p == FailOpen {
		return "fail-open"
	}
	return "fail-closed"
}

// ParsePolicy accepts "fail-closed" and "fail-open". An empty string means
// fail-closed.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail-closed", "closed":
		return FailClosed, nil
	case "fail-open", "open":
		return FailOpen, nil
	default:
		return FailClosed, fmt.Errorf("revoke: unknown policy %q", s)
	}
}

// Checker wraps a Store with a timeout and a failure policy.
type Checker struct {
	Store   Store
	Timeout time.Duration
	Policy  Policy

	// OnError is called for every lookup failure, whatever the policy.
	OnError func(ctx context.Context, jti string, err error)
}

// NewChecker returns a fail-closed checker with the default timeout.
func NewChecker(store Store) *Checker {
	return &Checker{Store: store, Timeout: DefaultTimeout, Policy: FailClosed}
}

// Check returns nil when the token may be used, ErrRevoked when it is on
// the deny list, and ErrUnavailable when the store failed under
// FailClosed. A nil Checker or a Checker without a store allows everything.
func (c *Checker) Check(ctx context.Context, jti string) error {
	if c == nil || c.Store == nil {
		return nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	revoked, err := c.Store.IsRevoked(ctx, jti)
	if err != nil {
		if c.OnError != nil {
			c.OnError(ctx, jti, err)
		}
		if c.Policy == FailOpen {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if revoked {
		return ErrRevoked
	}
	return nil
}

// Revoke adds jti to the deny list until expiresAt. A failed write is
// reported as ErrUnavailable.
func (c *Checker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if c == nil || c.Store == nil {
		return errors.New("revoke: no store configured")
	}
	if err := c.Store.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
