package httpx

import (
	"context"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity attaches the authenticated principal to ctx.
func WithIdentity(ctx context.Context, id jwtx.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the principal set by the Authenticator.
func IdentityFromContext(ctx context.Context) (jwtx.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(jwtx.Identity)
	return id, ok
}

// MustIdentity is for handlers mounted behind the Authenticator, where a
// missing identity is a wiring bug.
func MustIdentity(ctx context.Context) jwtx.Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic("httpx: handler mounted without Authenticator")
	}
	return id
}
