package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
)

// Authenticator turns a bearer token into a request Identity or rejects the
// request before the wrapped handler runs.
type Authenticator struct {
	Verifier *jwtx.Verifier

	// Revocations may be nil, in which case no deny list is consulted.
	Revocations *revoke.Checker

	// Now defaults to time.Now.
	Now func() time.Time
}

// BearerToken extracts the token from the Authorization header. The scheme
// is matched case-insensitively; nothing else is ever consulted.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate runs the full pipeline for one request.
func (a *Authenticator) Authenticate(r *http.Request) (jwtx.Identity, error) {
	raw, ok := BearerToken(r)
	if !ok {
		return jwtx.Identity{}, &AuthError{Kind: KindMissingCredentials, Err: ErrMissingCredentials}
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	claims, err := a.Verifier.Verify(raw, jwtx.TokenAccess, now())
	if err != nil {
		return jwtx.Identity{}, Classify(err)
	}

	if err := a.Revocations.Check(r.Context(), claims.ID); err != nil {
		return jwtx.Identity{}, Classify(err)
	}

	return claims.Identity(), nil
}

// Middleware attaches the Identity to the request context and adds the
// subject and role to the request logger.
func (a *Authenticator) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, err := a.Authenticate(r)
			if err != nil {
				ae := Classify(err)
				slogx.FromContext(ctx).Warn("authentication failed",
					"kind", string(ae.Kind),
					"err", ae.Err,
				)
				WriteAuthError(w, ae)
				return
			}

			ctx = WithIdentity(ctx, id)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(
				"sub", id.Subject,
				"role", id.Role.String(),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
