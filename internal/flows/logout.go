package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// LogoutFailureKind classifies version-bump failures.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureNotFound
	LogoutFailureBackend
)

// LogoutResult reports the committed version.
type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
	Version int64
}

// LogoutDeps captures dependencies of every bare version bump.
type LogoutDeps struct {
	Accounts account.AccountStore
	Cache    revocation.Cache
	Warn     WarnFunc
}

// RunLogout revokes every outstanding token of the account by bumping its
// version. It is also the primitive behind admin revocation and bans.
func RunLogout(ctx context.Context, accountID string, deps LogoutDeps) LogoutResult {
	version, err := deps.Accounts.IncrementSessionVersion(ctx, accountID, time.Time{})
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return LogoutResult{Failure: LogoutFailureNotFound, Err: err}
		}
		return LogoutResult{Failure: LogoutFailureBackend, Err: err}
	}
	publishVersion(ctx, deps.Cache, deps.Warn, accountID, version)
	return LogoutResult{Version: version}
}
