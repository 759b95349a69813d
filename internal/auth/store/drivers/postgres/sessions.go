package postgres

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
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, family_id, user_id, token_hash, expires_at, revoked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`,
		s.ID, s.FamilyID, s.UserID, s.TokenHash, s.ExpiresAt.UTC(), now, now,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE, updated_at = $1 WHERE id = $2 AND NOT revoked`, r.now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) RevokeFamily(ctx context.Context, familyID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE, updated_at = $1 WHERE family_id = $2 AND NOT revoked`,
		r.now().UTC(), familyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE, updated_at = $1 WHERE user_id = $2 AND NOT revoked`,
		r.now().UTC(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND NOT revoked AND expires_at > $2
		ORDER BY created_at DESC, id DESC`,
		userID, now.UTC())
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
