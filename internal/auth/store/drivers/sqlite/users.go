package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, display_name, password_hash, role, mfa_secret, mfa_enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                    domain.User
		secret               sql.NullString
		enabled              sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role,
		&secret, &enabled, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, err
	}

	u.MFASecret = fromNullString(secret)
	u.MFAEnabled = fromNullUnix(enabled)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email)))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, domain.NormalizeEmail(u.Email), u.DisplayName, u.PasswordHash, u.Role,
		nullString(u.MFASecret), nullUnix(u.MFAEnabled), unix(u.CreatedAt), unix(now),
	)
	return mapConstraint(err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, unix(time.Now()), userID))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID, role string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, unix(time.Now()), userID))
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID, secret string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, mfa_enabled = NULL, updated_at = ? WHERE id = ?`,
		secret, unix(time.Now()), userID))
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	now := unix(time.Now())
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = ?, updated_at = ? WHERE id = ? AND mfa_secret IS NOT NULL`,
		now, now, userID))
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET mfa_secret = NULL, mfa_enabled = NULL, updated_at = ? WHERE id = ?`,
		unix(time.Now()), userID))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
