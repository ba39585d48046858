package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/dashauth/internal/auth/domain"
	"github.com/aussiebroadwan/dashauth/internal/auth/store"
	"github.com/aussiebroadwan/dashauth/pkg/cryptox"
	"github.com/aussiebroadwan/dashauth/pkg/idx"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
)

// MinPasswordLength applies to user supplied passwords.
const MinPasswordLength = 10

var (
	ErrInvalidEmail  = errors.New("email is required")
	ErrInvalidRole   = errors.New("unknown role")
	ErrWeakPassword  = errors.New("password too short")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadySeeded = errors.New("users already exist")
)

// NewUser is the input of CreateUser.
type NewUser struct {
	Email       string
	DisplayName string
	Password    string
	Role        string
}

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// CreateUser validates and stores a new user with an argon2id password hash.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if in.Role == "" {
		in.Role = domain.RoleViewer
	}
	if !domain.ValidRole(in.Role) {
		return domain.User{}, ErrInvalidRole
	}
	if len(in.Password) < MinPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return s.Store.Users().GetUserByID(ctx, u.ID)
}

// SetRole changes a user's role. It shows up in the next issued access token.
func (s *UserService) SetRole(ctx context.Context, userID, role string) (domain.User, error) {
	if !domain.ValidRole(role) {
		return domain.User{}, ErrInvalidRole
	}
	if err := s.Store.Users().UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every session of the user, signing out other devices.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifyPassword(current, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.Sessions().RevokeUserSessions(ctx, userID)
	})
}

// SeedAdmin creates the first admin when the users table is empty. An empty
// password is replaced by a generated one, which is returned so it can be
// shown once.
func (s *UserService) SeedAdmin(ctx context.Context, email, password string) (string, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return "", err
	}
	if !empty {
		return "", ErrAlreadySeeded
	}

	if password == "" {
		password, err = cryptox.GeneratePassword(20)
		if err != nil {
			return "", err
		}
	}

	if _, err := s.CreateUser(ctx, NewUser{
		Email:       email,
		DisplayName: "Administrator",
		Password:    password,
		Role:        domain.RoleAdmin,
	}); err != nil {
		return "", err
	}
	return password, nil
}
