package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		have jwtx.Role
		need jwtx.Role
		want int
	}{
		{jwtx.RoleStudent, jwtx.RoleStudent, http.StatusOK},
		{jwtx.RoleStudent, jwtx.RoleInstructor, http.StatusForbidden},
		{jwtx.RoleStudent, jwtx.RoleAdmin, http.StatusForbidden},
		{jwtx.RoleInstructor, jwtx.RoleInstructor, http.StatusOK},
		{jwtx.RoleInstructor, jwtx.RoleAdmin, http.StatusForbidden},
		{jwtx.RoleAdmin, jwtx.RoleInstructor, http.StatusOK},
		{jwtx.RoleAdmin, jwtx.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.have.String()+"->"+tt.need.String(), func(t *testing.T) {
			pair := f.issue(t, tt.have)
			h := httpx.Chain(okHandler(), f.authn.Middleware(), httpx.RequireRole(tt.need))

			rec, body := serve(t, h, "Bearer "+pair.AccessToken)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				require.Equal(t, string(httpx.KindInsufficientRole), body.Error)
				require.Equal(t, `Bearer error="insufficient_scope"`, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	h := httpx.Chain(okHandler(), httpx.RequireRole(jwtx.RoleStudent))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), string(httpx.KindMissingCredentials))
}
