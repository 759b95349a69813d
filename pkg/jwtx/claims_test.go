package jwtx_test

import (
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func validClaims(now time.Time) jwtx.Claims {
	return jwtx.NewClaims("user-1", "u1@x.com", jwtx.RoleStudent, jwtx.TokenAccess,
		exampleIssuer, exampleAudience, time.Minute, now)
}

func TestValidateExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	want := exampleConfig().Expectation(jwtx.TokenAccess)

	t.Run("valid token", func(t *testing.T) {
		_, err := jwtx.Validate(validClaims(now), want, now.Add(30*time.Second))
		require.NoError(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := jwtx.Validate(validClaims(now), want, now.Add(2*time.Minute))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expiry instant is already expired", func(t *testing.T) {
		_, err := jwtx.Validate(validClaims(now), want, now.Add(time.Minute))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("missing exp", func(t *testing.T) {
		c := validClaims(now)
		c.ExpiresAt = nil
		_, err := jwtx.Validate(c, want, now)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestValidateType(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	cfg := exampleConfig()

	t.Run("refresh where access required", func(t *testing.T) {
		c := validClaims(now)
		c.Type = jwtx.TokenRefresh
		_, err := jwtx.Validate(c, cfg.Expectation(jwtx.TokenAccess), now)
		require.ErrorIs(t, err, jwtx.ErrTokenType)
	})

	t.Run("access where refresh required", func(t *testing.T) {
		_, err := jwtx.Validate(validClaims(now), cfg.Expectation(jwtx.TokenRefresh), now)
		require.ErrorIs(t, err, jwtx.ErrTokenType)
	})
}

func TestValidateIssuerAndAudience(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	want := exampleConfig().Expectation(jwtx.TokenAccess)

	t.Run("mismatched issuer", func(t *testing.T) {
		c := validClaims(now)
		c.Issuer = "someone-else"
		_, err := jwtx.Validate(c, want, now)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("issuer match is exact", func(t *testing.T) {
		c := validClaims(now)
		c.Issuer = exampleIssuer + " "
		_, err := jwtx.Validate(c, want, now)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("mismatched audience", func(t *testing.T) {
		c := validClaims(now)
		c.Audience = jwt.ClaimStrings{"billing"}
		_, err := jwtx.Validate(c, want, now)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("audience among several", func(t *testing.T) {
		c := validClaims(now)
		c.Audience = jwt.ClaimStrings{"billing", exampleAudience}
		_, err := jwtx.Validate(c, want, now)
		require.NoError(t, err)
	})
}

func TestValidateOrder(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	want := exampleConfig().Expectation(jwtx.TokenAccess)

	// Everything is wrong; expiry is reported first.
	c := validClaims(now)
	c.Type = jwtx.TokenRefresh
	c.Issuer = "x"
	c.Audience = jwt.ClaimStrings{"y"}
	_, err := jwtx.Validate(c, want, now.Add(time.Hour))
	require.ErrorIs(t, err, jwtx.ErrExpired)

	// Not expired: the type mismatch wins over issuer and audience.
	_, err = jwtx.Validate(c, want, now)
	require.ErrorIs(t, err, jwtx.ErrTokenType)

	// Type fixed: issuer wins over audience.
	c.Type = jwtx.TokenAccess
	_, err = jwtx.Validate(c, want, now)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestValidateDoesNotMutate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	c := validClaims(now)
	before := c

	got, err := jwtx.Validate(c, exampleConfig().Expectation(jwtx.TokenAccess), now)
	require.NoError(t, err)
	require.Equal(t, before, c)
	require.Equal(t, before, got)
}

func TestNewClaimsUniqueJTI(t *testing.T) {
	now := time.Now().UTC()
	seen := make(map[string]struct{})
	for range 1000 {
		c := validClaims(now)
		_, dup := seen[c.ID]
		require.False(t, dup, "jti reused: %s", c.ID)
		seen[c.ID] = struct{}{}
	}
}

func TestIdentityFromClaims(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	c := validClaims(now)

	id := c.Identity()
	require.Equal(t, "user-1", id.Subject)
	require.Equal(t, "u1@x.com", id.Email)
	require.Equal(t, jwtx.RoleStudent, id.Role)
	require.Equal(t, c.ID, id.TokenID)
	require.True(t, now.Add(time.Minute).Equal(id.ExpiresAt))
}
