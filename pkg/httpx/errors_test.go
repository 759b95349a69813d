package httpx_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		kind   httpx.ErrorKind
		status int
	}{
		{jwtx.ErrMalformed, httpx.KindMalformed, http.StatusUnauthorized},
		{jwtx.ErrInvalidSignature, httpx.KindInvalidSignature, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", jwtx.ErrExpired), httpx.KindExpired, http.StatusUnauthorized},
		{jwtx.ErrTokenType, httpx.KindTokenTypeMismatch, http.StatusUnauthorized},
		{jwtx.ErrIssuer, httpx.KindIssuerMismatch, http.StatusUnauthorized},
		{jwtx.ErrAudience, httpx.KindAudienceMismatch, http.StatusUnauthorized},
		{revoke.ErrRevoked, httpx.KindRevoked, http.StatusUnauthorized},
		{revoke.ErrUnavailable, httpx.KindRevocationUnavailable, http.StatusUnauthorized},
		{httpx.ErrMissingCredentials, httpx.KindMissingCredentials, http.StatusUnauthorized},
		{jwtx.ErrInsufficientRole, httpx.KindInsufficientRole, http.StatusForbidden},
		{errors.New("something else"), httpx.KindMalformed, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ae := httpx.Classify(tt.err)
			require.Equal(t, tt.kind, ae.Kind)
			require.Equal(t, tt.status, ae.Status())
			require.ErrorIs(t, ae, tt.err)
		})
	}
}

func TestStatusForIsTotal(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, httpx.StatusFor("made_up"))
	require.Equal(t, http.StatusForbidden, httpx.StatusFor(httpx.KindInsufficientRole))
}

func TestWriteAuthErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteAuthError(rec, fmt.Errorf("%w: key id abc123 not found", jwtx.ErrInvalidSignature))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
	require.NotContains(t, rec.Body.String(), "abc123")
}
