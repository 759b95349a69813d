package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

func tokenConfig() jwtx.Config {
	return jwtx.Config{
		Secret:     "an-http-test-secret-that-is-long-enough",
		Issuer:     "acc-lms-auth",
		Audience:   "acc-lms",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	}
}

type fixture struct {
	issuer *jwtx.Issuer
	authn  *httpx.Authenticator
	store  *revoke.Memory
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: t0.Add(time.Minute)}

	iss, err := jwtx.NewIssuerWithClock(tokenConfig(), func() time.Time { return t0 })
	require.NoError(t, err)
	v, err := jwtx.NewVerifier(tokenConfig())
	require.NoError(t, err)

	f.issuer = iss
	f.store = revoke.NewMemoryWithClock(func() time.Time { return f.now })
	f.authn = &httpx.Authenticator{
		Verifier:    v,
		Revocations: revoke.NewChecker(f.store),
		Now:         func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) issue(t *testing.T, role jwtx.Role) jwtx.TokenPair {
	t.Helper()
	pair, err := f.issuer.Issue("user-1", "user@x.com", role)
	require.NoError(t, err)
	return pair
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func serve(t *testing.T, h http.Handler, authz string) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body errorBody
	if rec.Code >= 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestAuthenticatorAttachesIdentity(t *testing.T) {
	f := newFixture(t)
	pair := f.issue(t, jwtx.RoleInstructor)

	var got jwtx.Identity
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = httpx.MustIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), f.authn.Middleware())

	rec, _ := serve(t, h, "Bearer "+pair.AccessToken)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, jwtx.RoleInstructor, got.Role)
	require.Equal(t, pair.AccessTokenID, got.TokenID)
}

func TestAuthenticatorSchemeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	pair := f.issue(t, jwtx.RoleStudent)

	h := httpx.Chain(okHandler(), f.authn.Middleware())
	rec, _ := serve(t, h, "bearer "+pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticatorRejections(t *testing.T) {
	f := newFixture(t)
	pair := f.issue(t, jwtx.RoleStudent)

	reached := false
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}), f.authn.Middleware())

	tests := []struct {
		name   string
		authz  string
		before func()
		kind   httpx.ErrorKind
	}{
		{name: "no header", authz: "", kind: httpx.KindMissingCredentials},
		{name: "wrong scheme", authz: "Basic dXNlcjpwdw==", kind: httpx.KindMissingCredentials},
		{name: "empty bearer", authz: "Bearer   ", kind: httpx.KindMissingCredentials},
		{name: "garbage", authz: "Bearer not-a-jwt", kind: httpx.KindMalformed},
		{name: "tampered", authz: "Bearer " + pair.AccessToken[:len(pair.AccessToken)-2] + "xx", kind: httpx.KindInvalidSignature},
		{name: "refresh token", authz: "Bearer " + pair.RefreshToken, kind: httpx.KindTokenTypeMismatch},
		{
			name:   "expired",
			authz:  "Bearer " + pair.AccessToken,
			before: func() { f.now = t0.Add(16 * time.Minute) },
			kind:   httpx.KindExpired,
		},
		{
			name:  "revoked",
			authz: "Bearer " + pair.AccessToken,
			before: func() {
				f.now = t0.Add(time.Minute)
				require.NoError(t, f.store.Revoke(context.Background(), pair.AccessTokenID, pair.AccessExpiresAt))
			},
			kind: httpx.KindRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.before != nil {
				tt.before()
			}
			reached = false

			rec, body := serve(t, h, tt.authz)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, string(tt.kind), body.Error)
			require.NotEmpty(t, body.Description)
			require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			require.False(t, reached, "handler must not run")
		})
	}
}

type brokenStore struct{}

func (brokenStore) Revoke(context.Context, string, time.Time) error { return errors.New("down") }
func (brokenStore) IsRevoked(context.Context, string) (bool, error) { return false, errors.New("down") }

func TestAuthenticatorRevocationUnavailable(t *testing.T) {
	f := newFixture(t)
	pair := f.issue(t, jwtx.RoleStudent)

	t.Run("fail closed", func(t *testing.T) {
		f.authn.Revocations = revoke.NewChecker(brokenStore{})
		rec, body := serve(t, httpx.Chain(okHandler(), f.authn.Middleware()), "Bearer "+pair.AccessToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, string(httpx.KindRevocationUnavailable), body.Error)
	})

	t.Run("fail open", func(t *testing.T) {
		c := revoke.NewChecker(brokenStore{})
		c.Policy = revoke.FailOpen
		f.authn.Revocations = c
		rec, _ := serve(t, httpx.Chain(okHandler(), f.authn.Middleware()), "Bearer "+pair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBearerToken(t *testing.T) {
	for in, want := range map[string]string{
		"Bearer abc":     "abc",
		"BEARER abc":     "abc",
		"  Bearer  abc ": "abc",
		"Bearer":         "",
		"Token abc":      "",
		"":               "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", in)
		got, ok := httpx.BearerToken(req)
		require.Equal(t, want, got, in)
		require.Equal(t, want != "", ok, in)
	}
}

func TestAuthenticatorIgnoresQueryAndCookie(t *testing.T) {
	f := newFixture(t)
	pair := f.issue(t, jwtx.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/?access_token="+pair.AccessToken, nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: pair.AccessToken})

	_, err := f.authn.Authenticate(req)
	require.ErrorIs(t, err, httpx.ErrMissingCredentials)
}
