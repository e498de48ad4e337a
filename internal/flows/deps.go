package flows

import (
	"context"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// TokenIssuer is the subset of jwt.Manager the flows need.
type TokenIssuer interface {
	IssuePair(id jwt.Identity, version int64) (jwt.Pair, error)
	ValidateRefreshToken(token string) (valid bool, accountID string, version int64)
	ParseAccess(token string) (*jwt.AccessClaims, error)
}

// WarnFunc logs a non-fatal condition. Nil disables logging.
type WarnFunc func(msg string, args ...any)

func (w WarnFunc) warn(msg string, args ...any) {
	if w != nil {
		w(msg, args...)
	}
}

// identityOf builds the informational access-token payload.
func identityOf(acc *account.Account) jwt.Identity {
	return jwt.Identity{
		AccountID:   acc.ID,
		Username:    acc.Username,
		DisplayName: acc.DisplayName,
		Email:       acc.Email,
		Role:        acc.Role,
	}
}

// publishVersion writes the freshly committed version to the cache. The bump
// is already durable, so a cache failure is logged and not returned.
func publishVersion(ctx context.Context, cache revocation.Cache, warn WarnFunc, accountID string, version int64) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(context.WithoutCancel(ctx), accountID, version); err != nil {
		warn.warn("revocation cache invalidate failed", "account_id", accountID, "error", err)
	}
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
