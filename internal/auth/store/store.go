package store

import (
	"context"
	"errors"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/domain"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are reached through methods so a Tx can
// hand out the same repositories bound to the transaction.
type Store interface {
	Users() Users
	Sessions() Sessions
	Revocations() Revocations

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches on the lower-cased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRole returns ErrNotFound for unknown users.
	UpdateRole(ctx context.Context, userID string, role jwtx.Role) error

	// ListUsers returns users ordered by id (creation order for ULIDs).
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	// ExistsWithRole reports whether any user holds exactly role.
	ExistsWithRole(ctx context.Context, role jwtx.Role) (bool, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession looks a session up by its refresh token id.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// RevokeSession returns ErrNotFound for unknown or already revoked ids,
	// so concurrent rotations of one refresh token cannot both succeed.
	RevokeSession(ctx context.Context, id string) error

	// RevokeFamily revokes every session sharing familyID and returns how
	// many were still live.
	RevokeFamily(ctx context.Context, familyID string) (int64, error)

	// RevokeUserSessions revokes every live session of a user, e.g. after a
	// role change.
	RevokeUserSessions(ctx context.Context, userID string) (int64, error)

	// ListUserSessions returns the live sessions of a user, newest first.
	ListUserSessions(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)

	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Revocations is the SQL-backed token deny list. It satisfies revoke.Store.
type Revocations interface {
	// Revoke is idempotent.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}
