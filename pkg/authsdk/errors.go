package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int `json:"-"`

	// Code is the machine readable reason, for example "token_expired",
	// "insufficient_role" or "invalid_grant".
	Code        string            `json:"error"`
	Description string            `json:"error_description"`
	Fields      map[string]string `json:"fields,omitempty"`

	// Challenge is the WWW-Authenticate header, set on 401 and 403.
	Challenge string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authsdk: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("authsdk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// parseErrorResponse builds an APIError from a response body. Bodies that
// are not JSON still produce an error carrying the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Challenge:  resp.Header.Get("WWW-Authenticate"),
	}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the service rejected the credentials.
func IsUnauthorized(err error) bool { return statusOf(err) == http.StatusUnauthorized }

// IsForbidden reports whether the caller was authenticated but lacks the role.
func IsForbidden(err error) bool { return statusOf(err) == http.StatusForbidden }

// IsNotFound reports a 404.
func IsNotFound(err error) bool { return statusOf(err) == http.StatusNotFound }

// IsRevoked reports whether the access token was rejected as revoked.
func IsRevoked(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == string(httpx.KindRevoked)
}

// IsInvalidGrant reports a refresh token that can no longer be used. A
// Session that gets this must log in again.
func IsInvalidGrant(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == httpx.ErrorCodeInvalidGrant
}
