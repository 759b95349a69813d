package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/domain"
	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := NewStoreFromDB(db)
	s.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return s, mock
}

func userRow(id, email, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "display_name", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(id, email, "Ada", "hash", role, testNow, testNow)
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestGetUserByEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(userRow("u1", "ada@example.com", "instructor"))

	u, err := s.Users().GetUserByEmail(context.Background(), " Ada@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, jwtx.RoleInstructor, u.Role)
	require.True(t, testNow.Equal(u.CreatedAt))
}

func TestGetUserNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Users().GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUserUnknownRole(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(userRow("u1", "ada@example.com", "root"))

	_, err := s.Users().GetUserByID(context.Background(), "u1")
	require.ErrorIs(t, err, jwtx.ErrUnknownRole)
}

func TestCreateUser(t *testing.T) {
	u := domain.User{ID: "u1", Email: "Ada@Example.com", DisplayName: "Ada", PasswordHash: "hash", Role: jwtx.RoleStudent}

	t.Run("inserts lower-cased email", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(q("INSERT INTO users")).
			WithArgs("u1", "ada@example.com", "Ada", "hash", "student", testNow, testNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Users().CreateUser(context.Background(), u))
	})

	t.Run("unique violation", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(q("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolationCode})

		err := s.Users().CreateUser(context.Background(), u)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q("UPDATE users SET role = $1")).
		WithArgs("admin", testNow, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Users().UpdateRole(context.Background(), "missing", jwtx.RoleAdmin)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	s, mock := newMockStore(t)

	rows := userRow("u1", "a@x.com", "student")
	rows.AddRow("u2", "b@x.com", "", "hash", "admin", testNow, testNow)
	mock.ExpectQuery(q("ORDER BY id LIMIT $1 OFFSET $2")).
		WithArgs(10, 0).
		WillReturnRows(rows)

	users, err := s.Users().ListUsers(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, jwtx.RoleAdmin, users[1].Role)
}

func TestSessionFamilyRevocation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q("WHERE family_id = $2 AND NOT revoked")).
		WithArgs(testNow, "fam-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.Sessions().RevokeFamily(context.Background(), "fam-1")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestGetSession(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("FROM sessions WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "family_id", "user_id", "token_hash", "expires_at", "revoked", "created_at", "updated_at"}).
			AddRow("s1", "fam-1", "u1", "hash", testNow.Add(time.Hour), true, testNow, testNow))

	sess, err := s.Sessions().GetSession(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, "fam-1", sess.FamilyID)
	require.True(t, sess.Revoked)
	require.False(t, sess.Active(testNow))
}

func TestRevocations(t *testing.T) {
	s, mock := newMockStore(t)
	exp := testNow.Add(15 * time.Minute)

	mock.ExpectExec(q("INSERT INTO revoked_tokens")).
		WithArgs("jti-1", exp, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)")).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(q("DELETE FROM revoked_tokens WHERE expires_at <= $1")).
		WithArgs(testNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	ctx := context.Background()
	require.NoError(t, s.Revocations().Revoke(ctx, "jti-1", exp))

	revoked, err := s.Revocations().IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	n, err := s.Revocations().DeleteExpiredRevocations(ctx, testNow)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}

func TestWithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE sessions SET revoked = TRUE")).
			WithArgs(testNow, "s1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := s.WithTx(context.Background(), func(tx store.Tx) error {
			return tx.Sessions().RevokeSession(context.Background(), "s1")
		})
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		s, mock := newMockStore(t)
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := s.WithTx(context.Background(), func(tx store.Tx) error { return boom })
		require.ErrorIs(t, err, boom)
	})

	t.Run("no nesting", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := s.WithTx(context.Background(), func(tx store.Tx) error {
			return tx.WithTx(context.Background(), func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	s := NewStoreFromDB(db)
	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.Error(t, s.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
