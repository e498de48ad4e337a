package flows

import (
	"context"
	"errors"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// ValidateFailureKind classifies access-token validation outcomes.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureInvalidToken
	// ValidateFailureUnversioned means the token lacks subject or version and
	// the version check was skipped.
	ValidateFailureUnversioned
	ValidateFailureUnusable
	ValidateFailureSuperseded
	ValidateFailureBackend
)

// ValidateResult carries the verified claims and the authoritative version.
type ValidateResult struct {
	Failure  ValidateFailureKind
	Err      error
	Claims   *jwt.AccessClaims
	Version  int64
	CacheHit bool
}

// ValidateDeps captures per-request validation dependencies.
type ValidateDeps struct {
	Issuer   TokenIssuer
	Accounts account.AccountStore
	Cache    revocation.Cache
	Warn     WarnFunc
}

// RunValidate checks an access token against the authoritative session
// version: cache first, store on a miss.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	claims, err := deps.Issuer.ParseAccess(tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureInvalidToken, Err: err}
	}
	if !claims.Versioned() {
		return ValidateResult{Failure: ValidateFailureUnversioned, Claims: claims}
	}

	accountID := claims.AccountID()
	presented := *claims.Version

	if deps.Cache != nil {
		cached, ok, err := deps.Cache.Get(ctx, accountID)
		if err != nil {
			deps.Warn.warn("revocation cache read failed", "account_id", accountID, "error", err)
		}
		// A claim newer than the cache means another node bumped the version
		// and this cache has not seen it yet: fall through to the store.
		if err == nil && ok && presented <= cached {
			return compareVersion(claims, presented, cached, true)
		}
	}

	acc, err := deps.Accounts.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ValidateResult{Failure: ValidateFailureUnusable, Claims: claims}
		}
		return ValidateResult{Failure: ValidateFailureBackend, Err: err, Claims: claims}
	}
	if !acc.Usable() {
		return ValidateResult{Failure: ValidateFailureUnusable, Claims: claims}
	}

	if deps.Cache != nil {
		if err := deps.Cache.Fill(ctx, accountID, acc.SessionVersion); err != nil {
			deps.Warn.warn("revocation cache fill failed", "account_id", accountID, "error", err)
		}
	}

	return compareVersion(claims, presented, acc.SessionVersion, false)
}

func compareVersion(claims *jwt.AccessClaims, presented, authoritative int64, cacheHit bool) ValidateResult {
	res := ValidateResult{Claims: claims, Version: authoritative, CacheHit: cacheHit}
	if presented != authoritative {
		res.Failure = ValidateFailureSuperseded
	}
	return res
}
