package jwtx

import (
	"time"
)

// TokenPair is the result of one issuance: both tokens carry the same
// identity claims and were stamped from the same instant.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IssuerOptions configures an Issuer. Secrets and TTLs are normally read once
// from the environment at process start.
type IssuerOptions struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Leeway is handed to the verifiers built from this issuer.
	Leeway time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Issuer signs access and refresh tokens from an identity claims mapping.
// It holds no state between calls and is safe for concurrent use.
type Issuer struct {
	access     Signer
	refresh    Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	now        func() time.Time

	accessSecret  []byte
	refreshSecret []byte
}

// NewIssuer builds an Issuer. Zero TTLs fall back to the package defaults and
// all TTLs are truncated to whole seconds.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	access, err := NewSignerHS256(opts.AccessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := NewSignerHS256(opts.RefreshSecret)
	if err != nil {
		return nil, err
	}

	accessTTL := opts.AccessTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	// exp has whole-second precision, so compare what will actually be stamped.
	accessTTL = accessTTL.Truncate(time.Second)
	refreshTTL = refreshTTL.Truncate(time.Second)
	if accessTTL < time.Second {
		return nil, ErrTTLTooShort
	}
	if refreshTTL <= accessTTL {
		return nil, ErrTTLOrder
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Issuer{
		access:        access,
		refresh:       refresh,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		leeway:        opts.Leeway,
		now:           now,
		accessSecret:  opts.AccessSecret,
		refreshSecret: opts.RefreshSecret,
	}, nil
}

// IssueAccessToken signs claims plus exp = now + access TTL with the access secret.
func (i *Issuer) IssueAccessToken(claims Claims) (string, error) {
	tok, _, err := i.sign(i.access, claims, i.accessTTL, i.clock())
	return tok, err
}

// IssueRefreshToken signs claims plus exp = now + refresh TTL with the refresh secret.
func (i *Issuer) IssueRefreshToken(claims Claims) (string, error) {
	tok, _, err := i.sign(i.refresh, claims, i.refreshTTL, i.clock())
	return tok, err
}

// IssuePair signs both tokens from a single instant so the access token
// always expires strictly before the refresh token.
func (i *Issuer) IssuePair(claims Claims) (TokenPair, error) {
	now := i.clock()

	access, accessExp, err := i.sign(i.access, claims, i.accessTTL, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(i.refresh, claims, i.refreshTTL, now)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// AccessVerifier returns a verifier for tokens minted by IssueAccessToken.
func (i *Issuer) AccessVerifier() Verifier {
	return NewVerifierHS256(i.accessSecret, i.leeway)
}

// RefreshVerifier returns a verifier for tokens minted by IssueRefreshToken.
func (i *Issuer) RefreshVerifier() Verifier {
	return NewVerifierHS256(i.refreshSecret, i.leeway)
}

// IsReady reports whether both signers hold a usable secret.
func (i *Issuer) IsReady() bool {
	if i == nil || i.access == nil || i.refresh == nil {
		return false
	}
	return i.access.Validate() == nil && i.refresh.Validate() == nil
}

func (i *Issuer) clock() time.Time {
	if i == nil || i.now == nil {
		return time.Now()
	}
	return i.now()
}

func (i *Issuer) sign(s Signer, claims Claims, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if i == nil || s == nil {
		return "", time.Time{}, errNilSigner
	}
	if _, ok := claims[ClaimExpiry]; ok {
		return "", time.Time{}, ErrReservedClaim
	}

	// exp is whole seconds, same as NumericDate with the default precision.
	exp := now.Add(ttl).Truncate(time.Second)

	payload := claims.Clone()
	payload[ClaimExpiry] = exp.Unix()

	tok, err := s.Sign(payload)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp.UTC(), nil
}
