package domain

import "time"

// Session is created at login and referenced by the "sid" claim of both
// tokens. Refresh is refused once it is revoked or past ExpiresAt.
type Session struct {
	ID              string
	UserID          string
	ExpiresAt       time.Time
	Revoked         bool
	RefreshCount    int
	LastRefreshedAt *time.Time
	UserAgent       string
	RemoteAddr      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the session can still be refreshed at now.
func (s Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
