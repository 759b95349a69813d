package domain

import "time"

// Session is the server-side record of one refresh token. Rotating a refresh
// token revokes its session and opens a new one in the same family, so a
// replayed token can be traced back to every session it spawned.
type Session struct {
	ID        string // the refresh token's jti
	FamilyID  string // shared by every rotation of the original login
	UserID    string
	TokenHash string // cryptox.FingerprintToken of the refresh token
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session can still be exchanged at now.
func (s Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
