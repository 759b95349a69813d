package http

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/ergrato-dev/acc-lms-sub001/api/auth" // Swagger docs
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/service"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	authn        *httpx.Authenticator
	limits       httpx.RateLimits
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService

	// RevocationStore is pinged by /readyz when it is not the SQL store.
	RevocationStore revoke.Store

	// SecureCookies marks the refresh cookie Secure. Off only for local
	// plain-HTTP development.
	SecureCookies bool
}

func NewRouter(
	authn *httpx.Authenticator,
	limits httpx.RateLimits,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		authn:         authn,
		limits:        limits,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
		SecureCookies: true,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdmin()
	r.registerInstructor()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			LMS Authentication Service API
//	@version		0.1.0
//	@description	Issues and verifies HS256 JWT access and refresh tokens for the LMS.
//	@description
//	@description	Access tokens go in the Authorization header only. Refresh tokens rotate on every use.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured is the guard every protected route goes through: authenticate,
// check the role, then rate limit per subject.
func (r *Router) secured(h http.Handler, min jwtx.Role, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		r.authn.Middleware(),
		httpx.RequireRole(min),
		httpx.RateLimitBySubject(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, SecureCookies: r.SecureCookies}

	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)

	// Limited by IP + email to slow down password guessing on one account.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.authn.Middleware(),
			httpx.RateLimitBySubject(r.limits.Moderate),
		),
	)

	r.Mux.Handle("GET /v1/auth/me",
		r.secured(http.HandlerFunc(h.HandleMe), jwtx.RoleStudent, r.limits.Lenient))
	r.Mux.Handle("GET /v1/auth/sessions",
		r.secured(http.HandlerFunc(h.HandleSessions), jwtx.RoleStudent, r.limits.Lenient))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AuthService: r.AuthService}

	r.Mux.Handle("GET /v1/admin/users",
		r.secured(http.HandlerFunc(h.HandleListUsers), jwtx.RoleAdmin, r.limits.Moderate))
	r.Mux.Handle("PUT /v1/admin/users/{id}/role",
		r.secured(http.HandlerFunc(h.HandleSetRole), jwtx.RoleAdmin, r.limits.Moderate))
}

func (r *Router) registerInstructor() {
	r.Mux.Handle("GET /v1/instructor/ping",
		r.secured(InstructorPingHandler(), jwtx.RoleInstructor, r.limits.Lenient))
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.RevocationStore),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}
