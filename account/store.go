package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("account: not found")
	// ErrVersionConflict is returned by CompareAndIncrementSessionVersion when
	// the stored version no longer matches the expected one.
	ErrVersionConflict = errors.New("account: session version conflict")
	// ErrAlreadyUsed is returned when a secret token was consumed concurrently.
	ErrAlreadyUsed = errors.New("account: secret token already used")
	// ErrAlreadyExists is returned on unique-key collisions.
	ErrAlreadyExists = errors.New("account: already exists")
	// ErrCooldown is returned by CreateSecretToken when a token of the same
	// purpose was issued after notBefore.
	ErrCooldown = errors.New("account: secret token cooldown active")
)

// AccountStore owns account rows and the per-account session version.
type AccountStore interface {
	// AccountByIdentifier matches the username exactly or the email against
	// the lower-cased identifier. Soft-deleted accounts are not returned.
	AccountByIdentifier(ctx context.Context, identifier string) (*Account, error)
	AccountByID(ctx context.Context, id string) (*Account, error)
	// IncrementSessionVersion atomically adds one to the version and returns
	// the new value. A zero authenticatedAt leaves LastAuthenticatedAt as is.
	IncrementSessionVersion(ctx context.Context, id string, authenticatedAt time.Time) (int64, error)
	// CompareAndIncrementSessionVersion increments only when the stored version
	// equals expected, otherwise it returns ErrVersionConflict.
	CompareAndIncrementSessionVersion(ctx context.Context, id string, expected int64, authenticatedAt time.Time) (int64, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	MarkEmailVerified(ctx context.Context, id string) error
}

// SanctionStore owns bans and mutes. Expiry is evaluated at read time.
type SanctionStore interface {
	// ActiveBan returns the newest effectively active ban or ErrNotFound.
	ActiveBan(ctx context.Context, accountID string, now time.Time) (*Ban, error)
	// ActiveMute returns the newest effectively active mute or ErrNotFound.
	ActiveMute(ctx context.Context, accountID string, now time.Time) (*Mute, error)
	CreateBan(ctx context.Context, ban *Ban) error
	CreateMute(ctx context.Context, mute *Mute) error
	// LiftBans deactivates every active ban and returns how many changed.
	LiftBans(ctx context.Context, accountID string, at time.Time) (int64, error)
	LiftMutes(ctx context.Context, accountID string, at time.Time) (int64, error)
}

// SecretTokenStore owns one-time tokens.
type SecretTokenStore interface {
	// LastSecretTokenIssuedAt returns the creation time of the newest token
	// of purpose for the account, or ErrNotFound.
	LastSecretTokenIssuedAt(ctx context.Context, accountID string, purpose Purpose) (time.Time, error)
	// CreateSecretToken stores token and marks every prior unused token of
	// the same purpose for the account as used, atomically. When notBefore is
	// non-zero and a token of the purpose was created after it, nothing is
	// written and ErrCooldown is returned. The check and the insert are
	// serialized per account.
	CreateSecretToken(ctx context.Context, token *SecretToken, notBefore time.Time) error
	SecretTokenByHash(ctx context.Context, purpose Purpose, hash [32]byte) (*SecretToken, error)
	// ConsumeSecretToken marks an unused token as used. It returns
	// ErrAlreadyUsed if another caller consumed it first.
	ConsumeSecretToken(ctx context.Context, id string, at time.Time) error
}

// Store is the full CredentialStore the engine depends on.
type Store interface {
	AccountStore
	SanctionStore
	SecretTokenStore
}
