package domain

import (
	"slices"
	"strings"
	"time"
)

// Dashboard roles. They travel in the "role" claim and gate admin endpoints.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

var roles = []string{RoleAdmin, RoleOperator, RoleViewer}

// ValidRole reports whether r is one of the known dashboard roles.
func ValidRole(r string) bool { return slices.Contains(roles, r) }

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string     // argon2 encoded
	Role         string     // admin, operator or viewer
	MFAEnabled   *time.Time // set once a TOTP code has been verified
	MFASecret    *string    // TOTP secret, base32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMFA reports whether login must present a TOTP code.
func (u User) HasMFA() bool {
	return u.MFAEnabled != nil && u.MFASecret != nil && *u.MFASecret != ""
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
