package http

import (
	"net/http"
	"strconv"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/service"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/authsdk"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
)

type AdminHandler struct {
	AuthService *service.AuthService
}

type setRoleRequest struct {
	Role jwtx.Role `json:"role" validate:"required"`
}

// HandleListUsers pages with ?limit=&offset=.
//
//	@Summary	List users
//	@Tags		Admin
//	@Produce	json
//	@Param		limit	query		int	false	"Page size (default 50, max 200)"
//	@Param		offset	query		int	false	"Rows to skip"
//	@Success	200		{object}	authsdk.UserList
//	@Failure	400		{object}	authsdk.APIError	"invalid_request"
//	@Failure	401		{object}	authsdk.APIError	"authentication failed"
//	@Failure	403		{object}	authsdk.APIError	"insufficient_role - requires admin"
//	@Security	BearerAuth
//	@Router		/v1/admin/users [get]
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err1 := queryInt(r, "limit")
	offset, err2 := queryInt(r, "offset")
	if err1 != nil || err2 != nil {
		httpx.NewAPIError(http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "limit and offset must be integers").WriteError(w)
		return
	}

	users, err := h.AuthService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.UserList{Users: make([]authsdk.User, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, newUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleSetRole changes a user's role and revokes their sessions.
//
//	@Summary	Set role
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"User ID"
//	@Param		body	body		authsdk.SetRoleRequest	true	"student, instructor or admin"
//	@Success	200		{object}	authsdk.User
//	@Failure	400		{object}	authsdk.APIError	"invalid_request"
//	@Failure	401		{object}	authsdk.APIError	"authentication failed"
//	@Failure	403		{object}	authsdk.APIError	"insufficient_role - requires admin"
//	@Failure	404		{object}	authsdk.APIError	"not_found"
//	@Security	BearerAuth
//	@Router		/v1/admin/users/{id}/role [put]
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if apiErr := httpx.DecodeJSON(w, r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	u, err := h.AuthService.SetRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u))
}

// InstructorPingHandler is a minimal instructor-only resource, handy for
// checking a token's role end to end.
//
//	@Summary	Instructor ping
//	@Tags		Instructor
//	@Produce	json
//	@Success	200	{object}	map[string]string	"status, sub, role"
//	@Failure	401	{object}	authsdk.APIError	"authentication failed"
//	@Failure	403	{object}	authsdk.APIError	"insufficient_role - requires instructor"
//	@Security	BearerAuth
//	@Router		/v1/instructor/ping [get]
func InstructorPingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httpx.MustIdentity(r.Context())
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"sub":    id.Subject,
			"role":   id.Role.String(),
		})
	}
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
