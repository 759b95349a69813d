package httpx

import (
	"net/http"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
)

// RequireRole lets the request through when the caller holds at least min.
// It must be chained after the Authenticator.
func RequireRole(min jwtx.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteAuthError(w, ErrMissingCredentials)
				return
			}

			if err := jwtx.Authorize(id, min); err != nil {
				slogx.FromContext(r.Context()).Warn("authorization denied",
					"required", min.String(),
				)
				WriteAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
