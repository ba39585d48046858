package domain

// MFAEnrollment is returned when a user starts TOTP enrollment. MFA is not
// enforced until a code generated from Secret has been verified.
type MFAEnrollment struct {
	Secret  string `json:"secret"`  // base32
	URL     string `json:"url"`     // otpauth:// URL for QR codes
	Issuer  string `json:"issuer"`  // e.g. "Dashboard"
	Account string `json:"account"` // user email
}
