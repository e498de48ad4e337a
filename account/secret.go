package account

import "time"

// Purpose scopes a secret token to the action it authorizes.
type Purpose string

const (
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEmailVerification Purpose = "email_verification"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposePasswordReset, PurposeEmailVerification:
		return true
	default:
		return false
	}
}

// SecretToken is the server-side half of a one-time token. Only the SHA-256
// hash of the cleartext value is kept.
type SecretToken struct {
	ID        string
	AccountID string
	Purpose   Purpose
	Hash      [32]byte
	CreatedAt time.Time
	// ExpiresAt is nil for tokens that stay valid until superseded.
	ExpiresAt *time.Time
	UsedAt    *time.Time
	RequestIP string
	UserAgent string
}

// Used reports whether the token was consumed or superseded.
func (t *SecretToken) Used() bool {
	return t.UsedAt != nil
}

// Expired reports whether the token is past its expiry at now.
func (t *SecretToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
