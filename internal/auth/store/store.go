package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by each driver. The
// sub-repositories hang off it so a Tx exposes exactly the same surface.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
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

	// GetUserByEmail looks up the normalized email used at login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. A duplicate email is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns every user ordered by email.
	ListUsers(ctx context.Context) ([]domain.User, error)

	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateRole(ctx context.Context, userID, role string) error

	// UpdateMFASecret stores a pending TOTP secret and clears mfa_enabled.
	UpdateMFASecret(ctx context.Context, userID, secret string) error

	// EnableMFA stamps mfa_enabled once a code has been verified.
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears both the secret and mfa_enabled.
	DisableMFA(ctx context.Context, userID string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// TouchSession records a successful refresh at the given time.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// RevokeSession flips revoked=1. Revoking twice is not an error.
	RevokeSession(ctx context.Context, id string) error

	// RevokeUserSessions revokes every session of a user, e.g. after a
	// password change.
	RevokeUserSessions(ctx context.Context, userID string) error

	// DeleteStaleSessions removes sessions that are revoked or expired
	// before now and returns how many rows went away.
	DeleteStaleSessions(ctx context.Context, now time.Time) (int64, error)
}
