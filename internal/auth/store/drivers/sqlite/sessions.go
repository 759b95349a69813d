package sqlite

import (
	"context"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/domain"
)

const sessionColumns = `id, family_id, user_id, token_hash, expires_at, revoked, created_at, updated_at`

type sessionsRepo struct {
	db  dbtx
	now func() time.Time
}

func scanSession(row rowScanner) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.FamilyID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.Revoked, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	now := utc(r.now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, family_id, user_id, token_hash, expires_at, revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		s.ID, s.FamilyID, s.UserID, s.TokenHash, utc(s.ExpiresAt), now, now,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1, updated_at = ? WHERE id = ? AND revoked = 0`, utc(r.now()), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) RevokeFamily(ctx context.Context, familyID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1, updated_at = ? WHERE family_id = ? AND revoked = 0`,
		utc(r.now()), familyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1, updated_at = ? WHERE user_id = ? AND revoked = 0`,
		utc(r.now()), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		ORDER BY created_at DESC, id DESC`,
		userID, utc(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, utc(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
