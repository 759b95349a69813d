package authsdk

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rec.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	rec.WriteHeader(http.StatusUnauthorized)
	resp := rec.Result()

	err := parseErrorResponse(resp, []byte(`{"error":"token_revoked","error_description":"the access token has been revoked"}`))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, `Bearer error="invalid_token"`, apiErr.Challenge)
	require.True(t, IsUnauthorized(err))
	require.True(t, IsRevoked(fmt.Errorf("wrapped: %w", err)))
	require.False(t, IsForbidden(err))
}

func TestParseErrorResponseWithoutJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)

	err := parseErrorResponse(rec.Result(), []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "Bad Gateway", apiErr.Code)
	require.False(t, IsInvalidGrant(err))
}

func TestNewSDKClientTrimsSlash(t *testing.T) {
	t.Parallel()

	c := NewSDKClient("https://auth.example.com/")
	require.Equal(t, "https://auth.example.com/v1/auth/me", c.url("/v1/auth/me"))
}
