package authsdk

import (
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
)

// TokenPair is the body of a successful login or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        jwtx.Role `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionInfo describes one active login of the current user.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionList struct {
	Sessions []SessionInfo `json:"sessions"`
}

type UserList struct {
	Users []User `json:"users"`
}

type HealthChecks struct {
	Database    string `json:"database"`
	Revocations string `json:"revocations"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is accepted by refresh and logout. Browser clients may
// leave it empty and rely on the refresh cookie instead.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SetRoleRequest struct {
	Role jwtx.Role `json:"role"`
}
