//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/domain"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/idx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "lms",
				"POSTGRES_PASSWORD": "lms",
				"POSTGRES_DB":       "lms_auth",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://lms:lms@%s:%s/lms_auth?sslmode=disable", host, port.Port())
	s, err := NewStore(ctx, dsn, DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestStoreAgainstServer(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := domain.User{ID: idx.New().String(), Email: "Grace@X.com", PasswordHash: "h", Role: jwtx.RoleInstructor}
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.ErrorIs(t, s.Users().CreateUser(ctx, domain.User{ID: idx.New().String(), Email: "grace@x.com", PasswordHash: "h", Role: jwtx.RoleStudent}), store.ErrAlreadyExists)

	got, err := s.Users().GetUserByEmail(ctx, "GRACE@x.com")
	require.NoError(t, err)
	require.Equal(t, jwtx.RoleInstructor, got.Role)

	sess := domain.Session{ID: idx.New().String(), FamilyID: idx.New().String(), UserID: u.ID, TokenHash: "th", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().RevokeSession(ctx, sess.ID); err != nil {
			return err
		}
		return tx.Revocations().Revoke(ctx, "jti-x", now.Add(time.Minute))
	})
	require.NoError(t, err)

	live, err := s.Sessions().ListUserSessions(ctx, u.ID, now)
	require.NoError(t, err)
	require.Empty(t, live)

	revoked, err := s.Revocations().IsRevoked(ctx, "jti-x")
	require.NoError(t, err)
	require.True(t, revoked)
}
