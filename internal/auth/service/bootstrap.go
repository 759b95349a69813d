package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/cryptox"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/slogx"
)

// EnsureAdmin makes sure at least one admin exists. When none does, email is
// promoted if it is already registered, or created with a generated password
// otherwise. The password is returned only when a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string) (string, error) {
	l := slogx.FromContext(ctx)

	exists, err := s.Store.Users().ExistsWithRole(ctx, jwtx.RoleAdmin)
	if err != nil {
		return "", err
	}
	if exists {
		l.Debug("admin already present, skipping bootstrap")
		return "", nil
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := s.SetRole(ctx, u.ID, jwtx.RoleAdmin); err != nil {
			return "", err
		}
		l.Info("bootstrap promoted existing user to admin", slog.String("user_id", u.ID))
		return "", nil
	case !errors.Is(err, store.ErrNotFound):
		return "", err
	}

	password, err := cryptox.GeneratePassword()
	if err != nil {
		return "", err
	}
	u, err = s.Register(ctx, email, password, "Administrator", jwtx.RoleAdmin)
	if err != nil {
		return "", err
	}

	l.Info("bootstrap created admin user", slog.String("user_id", u.ID))
	return password, nil
}
