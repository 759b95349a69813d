package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/domain"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/cryptox"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/idx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrEmailTaken         = errors.New("email_taken")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidRole        = errors.New("invalid_role")
)

// AuthService owns the user and session lifecycle: it is the only caller of
// the token issuer and the only writer of the deny list.
type AuthService struct {
	Store       store.Store
	Issuer      *jwtx.Issuer
	Verifier    *jwtx.Verifier
	Revocations *revoke.Checker
	Hasher      *cryptox.Hasher

	// Now defaults to time.Now.
	Now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a user. RoleUnknown registers a student.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string, role jwtx.Role) (domain.User, error) {
	if role == jwtx.RoleUnknown {
		role = jwtx.RoleStudent
	}
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", u.ID),
		slog.String("role", role.String()),
	)
	return s.Store.Users().GetUserByID(ctx, u.ID)
}

// Login checks the password and opens a new session family. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (jwtx.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same argon2 cost as a real check.
			_ = s.Hasher.Verify(password, s.dummy())
			return jwtx.TokenPair{}, ErrInvalidCredentials
		}
		return jwtx.TokenPair{}, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		l.Info("login rejected", slog.String("user_id", u.ID))
		return jwtx.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.Issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return jwtx.TokenPair{}, err
	}

	sess := domain.Session{
		ID:        pair.RefreshTokenID,
		FamilyID:  pair.RefreshTokenID,
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return jwtx.TokenPair{}, err
	}

	l.Info("login succeeded", slog.String("user_id", u.ID), slog.String("session_id", sess.ID))
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair and retires the old one.
// Presenting a token that was already rotated revokes its whole family.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (jwtx.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.Verifier.Verify(refreshToken, jwtx.TokenRefresh, now)
	if err != nil {
		return jwtx.TokenPair{}, fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
	}

	denied := s.Revocations.Check(ctx, claims.ID)
	if denied != nil && !errors.Is(denied, revoke.ErrRevoked) {
		return jwtx.TokenPair{}, denied
	}

	sess, err := s.Store.Sessions().GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jwtx.TokenPair{}, ErrInvalidRefresh
		}
		return jwtx.TokenPair{}, err
	}
	if sess.UserID != claims.Subject || !cryptox.MatchFingerprint(refreshToken, sess.TokenHash) {
		return jwtx.TokenPair{}, ErrInvalidRefresh
	}
	if sess.Revoked || denied != nil {
		s.revokeFamily(ctx, sess)
		return jwtx.TokenPair{}, ErrInvalidRefresh
	}
	if !sess.Active(now) {
		return jwtx.TokenPair{}, ErrInvalidRefresh
	}

	// The role is read again so a demotion takes effect on the next refresh.
	u, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jwtx.TokenPair{}, ErrInvalidRefresh
		}
		return jwtx.TokenPair{}, err
	}

	pair, err := s.Issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return jwtx.TokenPair{}, err
	}

	next := domain.Session{
		ID:        pair.RefreshTokenID,
		FamilyID:  sess.FamilyID,
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	}

	var reused bool
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().RevokeSession(ctx, sess.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				reused = true
				return ErrInvalidRefresh
			}
			return err
		}
		return tx.Sessions().CreateSession(ctx, next)
	})
	if reused {
		s.revokeFamily(ctx, sess)
	}
	if err != nil {
		return jwtx.TokenPair{}, err
	}

	if err := s.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		l.Error("failed to deny-list rotated refresh token", slog.String("jti", claims.ID), slog.Any("error", err))
	}

	l.Info("refresh token rotated",
		slog.String("user_id", u.ID),
		slog.String("family_id", sess.FamilyID),
	)
	return pair, nil
}

func (s *AuthService) revokeFamily(ctx context.Context, sess domain.Session) {
	l := slogx.FromContext(ctx)
	n, err := s.Store.Sessions().RevokeFamily(ctx, sess.FamilyID)
	if err != nil {
		l.Error("failed to revoke session family",
			slog.String("family_id", sess.FamilyID),
			slog.Any("error", err),
		)
		return
	}
	l.Warn("refresh token reuse detected",
		slog.String("user_id", sess.UserID),
		slog.String("family_id", sess.FamilyID),
		slog.Int64("revoked", n),
	)
}

// Logout deny-lists the access token behind id. When refreshToken is given
// and belongs to the same subject, its session is closed too. A refresh
// token that does not verify is ignored.
func (s *AuthService) Logout(ctx context.Context, id jwtx.Identity, refreshToken string) error {
	if err := s.Revocations.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}

	// Expired refresh tokens are harmless; only live ones are closed.
	claims, err := s.Verifier.Verify(refreshToken, jwtx.TokenRefresh, s.now())
	if err != nil || claims.Subject != id.Subject {
		return nil
	}

	if err := s.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return err
	}
	if err := s.Store.Sessions().RevokeSession(ctx, claims.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	slogx.FromContext(ctx).Info("logged out",
		slog.String("user_id", id.Subject),
		slog.String("session_id", claims.ID),
	)
	return nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, id jwtx.Identity) (domain.User, error) {
	return s.GetUser(ctx, id.Subject)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// Sessions lists the live sessions of the authenticated user.
func (s *AuthService) Sessions(ctx context.Context, id jwtx.Identity) ([]domain.Session, error) {
	return s.Store.Sessions().ListUserSessions(ctx, id.Subject, s.now())
}

// ListUsers pages through all users. A limit outside (0, MaxPageSize] falls
// back to DefaultPageSize.
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.Users().ListUsers(ctx, limit, offset)
}

// SetRole changes a user's role and closes their sessions, so the new role
// is picked up at the next login. Access tokens already out keep the old role
// until they expire.
func (s *AuthService) SetRole(ctx context.Context, userID string, role jwtx.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}

	var (
		u       domain.User
		revoked int64
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateRole(ctx, userID, role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		var err error
		if revoked, err = tx.Sessions().RevokeUserSessions(ctx, userID); err != nil {
			return err
		}
		u, err = tx.Users().GetUserByID(ctx, userID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("role changed",
		slog.String("user_id", userID),
		slog.String("role", role.String()),
		slog.Int64("sessions_revoked", revoked),
	)
	return u, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}
