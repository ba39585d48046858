package authsdk

// Wire types shared by the server handlers and this client.

// TokenType is the only token_type the service hands out.
const TokenType = "Bearer"

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// OTP is the current TOTP code, required once MFA is enabled.
	OTP string `json:"otp,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh and /v1/auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expiresIn"`

	User UserInfo `json:"user"`
}

// UserInfo is the public view of a dashboard user.
type UserInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role"`
	MFAEnabled  bool   `json:"mfaEnabled"`
}

// MeResponse echoes the identity claims of the caller's access token.
type MeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	ExpiresAt int64  `json:"exp"`
}

// UserListResponse is returned by GET /v1/users.
type UserListResponse struct {
	Users []UserInfo `json:"users"`
}

// MFAEnrollResponse is returned by POST /v1/mfa/enroll.
type MFAEnrollResponse struct {
	Secret  string `json:"secret"`
	URL     string `json:"url"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// MFAVerifyRequest is the body of POST /v1/mfa/verify.
type MFAVerifyRequest struct {
	Code string `json:"code"`
}

// CreateUserRequest is the body of POST /v1/users.
type CreateUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
}

// SetRoleRequest is the body of PUT /v1/users/{id}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// ChangePasswordRequest is the body of POST /v1/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Issuer   string `json:"issuer"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
