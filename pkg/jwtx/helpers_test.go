package jwtx_test

import (
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	exampleIssuer   = "acc-lms-auth"
	exampleAudience = "acc-lms"
	exampleSecret   = "0123456789abcdef0123456789abcdef-test"
)

func exampleConfig() jwtx.Config {
	return jwtx.Config{
		Secret:     exampleSecret,
		Issuer:     exampleIssuer,
		Audience:   exampleAudience,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// fixedClock pins issuance to a whole second so NumericDate truncation does
// not shift expiries in time-sensitive assertions.
func fixedClock(t0 time.Time) func() time.Time {
	return func() time.Time { return t0 }
}

func newTestIssuer(t *testing.T, now time.Time) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuerWithClock(exampleConfig(), fixedClock(now))
	require.NoError(t, err)
	return iss
}

func newTestVerifier(t *testing.T) *jwtx.Verifier {
	t.Helper()
	v, err := jwtx.NewVerifier(exampleConfig())
	require.NoError(t, err)
	return v
}
