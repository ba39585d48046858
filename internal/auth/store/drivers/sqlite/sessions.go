package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, revoked, refresh_count, last_refreshed_at,
			user_agent, remote_addr, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, unix(s.ExpiresAt), s.Revoked, s.RefreshCount, nullUnix(s.LastRefreshedAt),
		s.UserAgent, s.RemoteAddr, unix(s.CreatedAt), unix(now),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var (
		s                               domain.Session
		lastRefreshed                   sql.NullInt64
		expiresAt, createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, revoked, refresh_count, last_refreshed_at,
			user_agent, remote_addr, created_at, updated_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &expiresAt, &s.Revoked, &s.RefreshCount, &lastRefreshed,
		&s.UserAgent, &s.RemoteAddr, &createdAt, &updatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.ExpiresAt = fromUnix(expiresAt)
	s.LastRefreshedAt = fromNullUnix(lastRefreshed)
	s.CreatedAt = fromUnix(createdAt)
	s.UpdatedAt = fromUnix(updatedAt)
	return s, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE sessions
		SET refresh_count = refresh_count + 1, last_refreshed_at = ?, updated_at = ?
		WHERE id = ?`,
		unix(at), unix(at), id))
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1, updated_at = ? WHERE id = ?`,
		unix(time.Now()), id))
}

func (r *sessionsRepo) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1, updated_at = ? WHERE user_id = ? AND revoked = 0`,
		unix(time.Now()), userID)
	return err
}

func (r *sessionsRepo) DeleteStaleSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE revoked = 1 OR expires_at <= ?`, unix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
