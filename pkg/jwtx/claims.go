package jwtx

import (
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Services override them through configuration but
// the access lifetime must never exceed the refresh lifetime.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType tells access tokens apart from refresh tokens. It travels in the
// "typ" claim so a refresh token can never stand in for an access token.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

func (t TokenType) Valid() bool {
	return t == TokenAccess || t == TokenRefresh
}

// Claims is the payload shared by every token the LMS services issue.
type Claims struct {
	jwt.RegisteredClaims

	// Email is informational only, authorization decisions use Role.
	Email string `json:"email,omitempty"`

	Role Role      `json:"role"`
	Type TokenType `json:"typ"`
}

// NewClaims builds a claim set for the given identity. Every call gets a
// fresh token id, so two claim sets built from the same input never share a
// "jti".
func NewClaims(
	subject, email string,
	role Role,
	typ TokenType,
	issuer, audience string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: email,
		Role:  role,
		Type:  typ,
	}
}

// NewJTI returns a unique identifier for the "jti" claim. ULIDs keep the ids
// sortable by issue time, which makes revocation entries easy to eyeball.
func NewJTI() string {
	return idx.MustNew().String()
}

// ExpiresAtTime returns the expiry as a time.Time, or the zero time when the
// claim is absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Identity is the resolved principal for a single request.
type Identity struct {
	Subject   string
	Email     string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// Identity extracts the request principal from validated claims.
func (c Claims) Identity() Identity {
	return Identity{
		Subject:   c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAtTime(),
	}
}

// checkStructure reports claims that decoded fine but are missing fields
// every token we issue carries.
func (c Claims) checkStructure() error {
	switch {
	case c.Subject == "":
		return malformed("missing sub")
	case c.ID == "":
		return malformed("missing jti")
	case c.ExpiresAt == nil || c.IssuedAt == nil:
		return malformed("missing exp or iat")
	case !c.ExpiresAt.After(c.IssuedAt.Time):
		return malformed("exp not after iat")
	case !c.Type.Valid():
		return malformed("unknown typ")
	case !c.Role.Valid():
		return malformed("unknown role")
	}
	return nil
}
