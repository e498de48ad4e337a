package auth

import (
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

type (
	Account     = account.Account
	Ban         = account.Ban
	Mute        = account.Mute
	Purpose     = account.Purpose
	SecretToken = account.SecretToken
	Store       = account.Store
)

const (
	PurposePasswordReset     = account.PurposePasswordReset
	PurposeEmailVerification = account.PurposeEmailVerification
)

// TokenPair is the result of a login or refresh. Both tokens carry Version.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	Version          int64     `json:"-"`
}

// AuthResult describes a validated access token. The identity fields are
// informational; privilege checks must go back to the store.
type AuthResult struct {
	AccountID   string
	Version     int64
	Username    string
	DisplayName string
	Email       string
	Role        string
	TokenID     string
	ExpiresAt   time.Time
}

// BanRequest describes an administrative ban. A nil ExpiresAt bans
// permanently.
type BanRequest struct {
	AccountID string
	ActorID   string
	Reason    string
	ExpiresAt *time.Time
}

// MuteRequest describes an administrative mute. Mutes always expire.
type MuteRequest struct {
	AccountID string
	ActorID   string
	Reason    string
	ExpiresAt time.Time
}

// Decision is the outcome of Evaluate. Mute never affects Allowed.
type Decision struct {
	Allowed bool
	Reason  string
	Ban     *Ban
	Mute    *Mute
}

// IssuedSecret carries a freshly issued one-time token. Cleartext must be
// delivered out of band and never stored.
type IssuedSecret struct {
	Purpose   Purpose
	AccountID string
	Cleartext string
	ExpiresAt *time.Time
}
