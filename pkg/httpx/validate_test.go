package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func decode(body string) (signupRequest, *httpx.APIError) {
	var req signupRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := httpx.DecodeJSON(httptest.NewRecorder(), r, &req)
	return req, err
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req, err := decode(`{"email":"a@b.co","password":"longenough"}`)
		require.Nil(t, err)
		require.Equal(t, "a@b.co", req.Email)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := decode(``)
		require.NotNil(t, err)
		require.Equal(t, http.StatusBadRequest, err.StatusCode)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := decode(`{"email":"a@b.co","password":"longenough","admin":true}`)
		require.NotNil(t, err)
		require.Equal(t, httpx.ErrorCodeInvalidRequest, err.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		_, err := decode(`{"email":"nope","password":"short"}`)
		require.NotNil(t, err)
		require.Equal(t, "must be a valid email address", err.Fields["email"])
		require.Equal(t, "must be at least 8 characters", err.Fields["password"])
	})
}

func TestAPIErrorWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.ErrNotFound.WriteError(rec)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"not_found","error_description":"the requested resource does not exist"}`, rec.Body.String())
}
