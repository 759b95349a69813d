package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
)

// ErrMissingCredentials is returned when no bearer token was presented.
var ErrMissingCredentials = errors.New("httpx: missing credentials")

// ErrorKind names why a request was turned away. The value is what clients
// see in the "error" field.
type ErrorKind string

const (
	KindMalformed             ErrorKind = "malformed_token"
	KindInvalidSignature      ErrorKind = "invalid_signature"
	KindExpired               ErrorKind = "token_expired"
	KindTokenTypeMismatch     ErrorKind = "token_type_mismatch"
	KindIssuerMismatch        ErrorKind = "issuer_mismatch"
	KindAudienceMismatch      ErrorKind = "audience_mismatch"
	KindRevoked               ErrorKind = "token_revoked"
	KindMissingCredentials    ErrorKind = "missing_credentials"
	KindRevocationUnavailable ErrorKind = "revocation_unavailable"
	KindInsufficientRole      ErrorKind = "insufficient_role"
)

var kindDescriptions = map[ErrorKind]string{
	KindMalformed:             "the access token is malformed",
	KindInvalidSignature:      "the access token signature is invalid",
	KindExpired:               "the access token has expired",
	KindTokenTypeMismatch:     "an access token is required",
	KindIssuerMismatch:        "the access token was issued by an unknown issuer",
	KindAudienceMismatch:      "the access token is not intended for this service",
	KindRevoked:               "the access token has been revoked",
	KindMissingCredentials:    "a bearer token is required",
	KindRevocationUnavailable: "the access token could not be checked, try again later",
	KindInsufficientRole:      "the access token does not grant the required role",
}

// StatusFor maps every kind to its HTTP status. Authorization failures are
// 403, everything else is an authentication failure and 401.
func StatusFor(kind ErrorKind) int {
	if kind == KindInsufficientRole {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// AuthError is the typed failure of the authentication pipeline.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *AuthError) Status() int { return StatusFor(e.Kind) }

// Description is the client-facing message. It never includes the
// underlying error.
func (e *AuthError) Description() string {
	if d, ok := kindDescriptions[e.Kind]; ok {
		return d
	}
	return kindDescriptions[KindMalformed]
}

// Classify turns any error from the token pipeline into an AuthError.
// Errors it does not recognise become malformed_token.
func Classify(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}

	kind := KindMalformed
	switch {
	case errors.Is(err, ErrMissingCredentials):
		kind = KindMissingCredentials
	case errors.Is(err, jwtx.ErrInvalidSignature):
		kind = KindInvalidSignature
	case errors.Is(err, jwtx.ErrExpired):
		kind = KindExpired
	case errors.Is(err, jwtx.ErrTokenType):
		kind = KindTokenTypeMismatch
	case errors.Is(err, jwtx.ErrIssuer):
		kind = KindIssuerMismatch
	case errors.Is(err, jwtx.ErrAudience):
		kind = KindAudienceMismatch
	case errors.Is(err, revoke.ErrRevoked):
		kind = KindRevoked
	case errors.Is(err, revoke.ErrUnavailable):
		kind = KindRevocationUnavailable
	case errors.Is(err, jwtx.ErrInsufficientRole):
		kind = KindInsufficientRole
	}
	return &AuthError{Kind: kind, Err: err}
}

// WriteAuthError writes an RFC 6750 bearer challenge plus a JSON body.
func WriteAuthError(w http.ResponseWriter, err error) {
	ae := Classify(err)

	challenge := `Bearer error="invalid_token"`
	switch ae.Kind {
	case KindMissingCredentials:
		// RFC 6750 3.1: no error code when the request had no credentials.
		challenge = `Bearer`
	case KindInsufficientRole:
		challenge = `Bearer error="insufficient_scope"`
	}
	w.Header().Set("WWW-Authenticate", challenge)

	WriteJSON(w, ae.Status(), map[string]string{
		"error":             string(ae.Kind),
		"error_description": ae.Description(),
	})
}
