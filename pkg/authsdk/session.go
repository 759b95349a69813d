package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
)

// refreshSkew refreshes the access token this long before it expires.
const refreshSkew = 30 * time.Second

// ErrNoRefreshToken is returned when the access token expired and the
// session cannot renew it.
var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// Session represents an authenticated session with automatic token refresh.
// It is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// newSession creates a new authenticated session from a token pair.
func newSession(client *SDKClient, pair *TokenPair) *Session {
	return &Session{
		client:       client,
		accessToken:  pair.AccessToken,
		refreshToken: pair.RefreshToken,
		expiresAt:    pair.AccessExpiresAt.Add(-refreshSkew),
	}
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.client.now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if s.client.now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = pair.AccessExpiresAt.Add(-refreshSkew)

	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Logout revokes the access token and the refresh token of this session.
// The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body any
	if s.refreshToken != "" {
		body = RefreshRequest{RefreshToken: s.refreshToken}
	}

	resp, err := s.client.send(ctx, http.MethodPost, "/v1/auth/logout", body, s.accessToken)
	if err != nil {
		return err
	}
	if err := checkStatusNoContent(resp); err != nil {
		return err
	}

	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	return nil
}

// Me returns the account behind the access token.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// Sessions lists the caller's active logins.
func (s *Session) Sessions(ctx context.Context) ([]SessionInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/sessions", nil)
	if err != nil {
		return nil, err
	}

	var out SessionList
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// ListUsers pages through all accounts. Requires the admin role.
func (s *Session) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/v1/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out UserList
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// SetRole changes a user's role. Requires the admin role. The target's
// existing logins are revoked by the service.
func (s *Session) SetRole(ctx context.Context, userID string, role jwtx.Role) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/admin/users/"+url.PathEscape(userID)+"/role", SetRoleRequest{Role: role})
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}
