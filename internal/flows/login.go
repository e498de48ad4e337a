package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureInvalidCredentials
	LoginFailureUnverified
	LoginFailureBanned
	LoginFailureBackend
	LoginFailureIssue
)

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure   LoginFailureKind
	Err       error
	AccountID string
	Reason    string
	Ban       *account.Ban
	Pair      jwt.Pair
	Rehashed  bool
}

// LoginThrottle counts failed logins per identifier.
type LoginThrottle interface {
	CheckLogin(ctx context.Context, identifier string) error
	RecordLoginFailure(ctx context.Context, identifier string) error
	ResetLogin(ctx context.Context, identifier string) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Accounts  account.AccountStore
	Sanctions account.SanctionStore
	Hasher    password.Hasher
	// DummyHash is verified when no account matches so that both paths run
	// the same key derivation at the same cost.
	DummyHash      string
	Issuer         TokenIssuer
	Cache          revocation.Cache
	Throttle       LoginThrottle
	UpgradeOnLogin bool
	Now            func() time.Time
	Warn           WarnFunc
}

// RunLogin authenticates identifier and password and starts a new session
// generation.
func RunLogin(ctx context.Context, identifier, secret string, deps LoginDeps) LoginResult {
	identifier = strings.TrimSpace(identifier)
	throttleKey := strings.ToLower(identifier)

	if deps.Throttle != nil {
		if err := deps.Throttle.CheckLogin(ctx, throttleKey); err != nil {
			return LoginResult{Failure: LoginFailureRateLimited, Err: err}
		}
	}

	acc, err := deps.Accounts.AccountByIdentifier(ctx, identifier)
	if err != nil {
		// Burn the same verification cost before answering.
		_, _ = deps.Hasher.Verify(secret, deps.DummyHash)
		if !errors.Is(err, account.ErrNotFound) {
			return LoginResult{Failure: LoginFailureBackend, Err: err}
		}
		return loginRejected(ctx, deps, throttleKey, "", err)
	}

	ok, err := deps.Hasher.Verify(secret, acc.PasswordHash)
	if err != nil || !ok {
		return loginRejected(ctx, deps, throttleKey, acc.ID, err)
	}
	if !acc.Usable() {
		return loginRejected(ctx, deps, throttleKey, acc.ID, nil)
	}
	if !acc.EmailVerified {
		return LoginResult{Failure: LoginFailureUnverified, AccountID: acc.ID, Reason: "email not verified"}
	}

	gate := RunGate(ctx, acc.ID, GateDeps{Sanctions: deps.Sanctions, Now: deps.Now, SkipMute: true})
	switch gate.Failure {
	case GateFailureBanned:
		return LoginResult{Failure: LoginFailureBanned, AccountID: acc.ID, Reason: gate.Reason, Ban: gate.Ban}
	case GateFailureBackend:
		return LoginResult{Failure: LoginFailureBackend, AccountID: acc.ID, Err: gate.Err}
	}

	if deps.Throttle != nil {
		if err := deps.Throttle.ResetLogin(ctx, throttleKey); err != nil {
			deps.Warn.warn("login throttle reset failed", "account_id", acc.ID, "error", err)
		}
	}

	version, err := deps.Accounts.IncrementSessionVersion(ctx, acc.ID, nowOr(deps.Now))
	if err != nil {
		return LoginResult{Failure: LoginFailureBackend, AccountID: acc.ID, Err: err}
	}
	publishVersion(ctx, deps.Cache, deps.Warn, acc.ID, version)

	pair, err := deps.Issuer.IssuePair(identityOf(acc), version)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, AccountID: acc.ID, Err: err}
	}

	res := LoginResult{AccountID: acc.ID, Pair: pair}
	if deps.UpgradeOnLogin {
		res.Rehashed = upgradePasswordHash(ctx, deps, acc, secret)
	}
	return res
}

func loginRejected(ctx context.Context, deps LoginDeps, throttleKey, accountID string, cause error) LoginResult {
	if deps.Throttle != nil {
		if err := deps.Throttle.RecordLoginFailure(ctx, throttleKey); err != nil {
			return LoginResult{Failure: LoginFailureRateLimited, AccountID: accountID, Err: err}
		}
	}
	return LoginResult{Failure: LoginFailureInvalidCredentials, AccountID: accountID, Err: cause}
}

func upgradePasswordHash(ctx context.Context, deps LoginDeps, acc *account.Account, secret string) bool {
	needs, err := deps.Hasher.NeedsUpgrade(acc.PasswordHash)
	if err != nil || !needs {
		return false
	}
	next, err := deps.Hasher.Hash(secret)
	if err != nil {
		return false
	}
	if err := deps.Accounts.UpdatePasswordHash(context.WithoutCancel(ctx), acc.ID, next); err != nil {
		deps.Warn.warn("password rehash failed", "account_id", acc.ID, "error", err)
		return false
	}
	return true
}
