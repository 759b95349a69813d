package http

import (
	"errors"
	"net/http"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/domain"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/service"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/authsdk"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
)

// RefreshCookie carries the refresh token for browser clients.
const RefreshCookie = "lms_refresh"

type AuthHandler struct {
	AuthService   *service.AuthService
	SecureCookies bool
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"omitempty,max=4096"`
}

func newUserResponse(u domain.User) authsdk.User {
	return authsdk.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// HandleRegister creates a student account. Roles above student are only
// granted through the admin API.
//
//	@Summary		Register
//	@Description	Creates a student account. Does not log in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest		true	"Account details"
//	@Success		201		{object}	authsdk.User
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		409		{object}	authsdk.APIError	"conflict - email already registered"
//	@Failure		429		{object}	authsdk.APIError	"rate limited"
//	@Router			/v1/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := httpx.DecodeJSON(w, r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	u, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.DisplayName, jwtx.RoleStudent)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newUserResponse(u))
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for an access and refresh token pair.
//	@Description	The refresh token is also set as an HttpOnly cookie scoped to /v1/auth.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenPair
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		401		{object}	authsdk.APIError	"invalid_credentials"
//	@Failure		429		{object}	authsdk.APIError	"rate limited"
//	@Header			200		{string}	Cache-Control		"no-store"
//	@Router			/v1/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := httpx.DecodeJSON(w, r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writePair(w, pair)
}

// HandleRefresh takes the refresh token from the JSON body, falling back to
// the refresh cookie.
//
//	@Summary		Refresh
//	@Description	Rotates a refresh token. Presenting an already rotated token revokes the whole login.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	false	"Refresh token, optional when the cookie is sent"
//	@Success		200		{object}	authsdk.TokenPair
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		401		{object}	authsdk.APIError	"invalid_grant"
//	@Failure		503		{object}	authsdk.APIError	"temporarily_unavailable"
//	@Header			200		{string}	Cache-Control		"no-store"
//	@Router			/v1/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, apiErr := refreshTokenFrom(w, r)
	if apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if token == "" {
		httpx.NewAPIError(http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "refresh_token is required").WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			h.clearCookie(w)
		}
		writeServiceError(w, r, err)
		return
	}
	h.writePair(w, pair)
}

// HandleLogout revokes the caller's access token and, when one is supplied,
// their refresh token.
//
//	@Summary		Logout
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	authsdk.RefreshRequest	false	"Refresh token to revoke along with the access token"
//	@Success		204
//	@Failure		401	{object}	authsdk.APIError	"authentication failed"
//	@Failure		503	{object}	authsdk.APIError	"temporarily_unavailable"
//	@Security		BearerAuth
//	@Router			/v1/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id := httpx.MustIdentity(r.Context())

	token, apiErr := refreshTokenFrom(w, r)
	if apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(r.Context(), id, token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe godoc
//
//	@Summary	Current user
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	authsdk.User
//	@Failure	401	{object}	authsdk.APIError	"authentication failed"
//	@Security	BearerAuth
//	@Router		/v1/auth/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Me(r.Context(), httpx.MustIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u))
}

// HandleSessions godoc
//
//	@Summary	Active sessions
//	@Description	Lists the caller's unrevoked, unexpired logins, newest first.
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	authsdk.SessionList
//	@Failure	401	{object}	authsdk.APIError	"authentication failed"
//	@Security	BearerAuth
//	@Router		/v1/auth/sessions [get]
func (h *AuthHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.AuthService.Sessions(r.Context(), httpx.MustIdentity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.SessionList{Sessions: make([]authsdk.SessionInfo, 0, len(sessions))}
	for _, s := range sessions {
		out.Sessions = append(out.Sessions, authsdk.SessionInfo{ID: s.ID, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) writePair(w http.ResponseWriter, pair jwtx.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/v1/auth",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFrom reads an optional {"refresh_token"} body, then the
// refresh cookie.
func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, *httpx.APIError) {
	var req refreshRequest
	if r.ContentLength != 0 {
		if apiErr := httpx.DecodeJSON(w, r, &req); apiErr != nil {
			return "", apiErr
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		return c.Value, nil
	}
	return "", nil
}

// writeServiceError maps service errors onto the JSON error body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.NewAPIError(http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect").WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.NewAPIError(http.StatusUnauthorized, httpx.ErrorCodeInvalidGrant, "refresh token is invalid, expired or revoked").WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		httpx.NewAPIError(http.StatusConflict, httpx.ErrorCodeConflict, "email is already registered").WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		httpx.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidRole):
		httpx.NewAPIError(http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "unknown role").WriteError(w)
	case errors.Is(err, revoke.ErrUnavailable):
		slogx.FromContext(r.Context()).Error("revocation store unavailable", "err", err)
		httpx.NewAPIError(http.StatusServiceUnavailable, "temporarily_unavailable", "try again later").WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.ErrServerError.WriteError(w)
	}
}
