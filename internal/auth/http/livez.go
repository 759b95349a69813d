package http

import (
	"net/http"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/authsdk"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
)

// LivezHandler always answers 200 while the process is up.
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning status, uptime and version
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
