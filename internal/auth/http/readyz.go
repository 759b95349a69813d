package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/authsdk"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
)

// ReadyzHandler reports 503 when the database or the revocation backend is
// unreachable. The backend is probed with a real lookup under the same
// timeout the authenticator uses.
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe reporting the database and the revocation backend
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"a backend is unreachable"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	revocations revoke.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database:    "ok",
			Revocations: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if revocations != nil {
			ctx, cancel := context.WithTimeout(r.Context(), revoke.DefaultTimeout)
			_, err := revocations.IsRevoked(ctx, "readyz")
			cancel()
			if err != nil {
				checks.Revocations = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
