package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// RefreshFailureKind classifies refresh failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureInvalidToken
	RefreshFailureUnusable
	RefreshFailureSuperseded
	RefreshFailureBanned
	RefreshFailureBackend
	RefreshFailureIssue
)

// RefreshResult carries the rotated pair or failure metadata.
type RefreshResult struct {
	Failure          RefreshFailureKind
	Err              error
	AccountID        string
	PresentedVersion int64
	Reason           string
	Ban              *account.Ban
	Pair             jwt.Pair
}

// RefreshDeps captures refresh dependencies.
type RefreshDeps struct {
	Accounts  account.AccountStore
	Sanctions account.SanctionStore
	Issuer    TokenIssuer
	Cache     revocation.Cache
	Now       func() time.Time
	Warn      WarnFunc
}

// RunRefresh rotates a session. The increment is conditional on the presented
// version, so of two concurrent refreshes with the same token only one wins.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	valid, accountID, presented := deps.Issuer.ValidateRefreshToken(refreshToken)
	if !valid {
		return RefreshResult{Failure: RefreshFailureInvalidToken}
	}

	res := RefreshResult{AccountID: accountID, PresentedVersion: presented}

	acc, err := deps.Accounts.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			res.Failure = RefreshFailureUnusable
			return res
		}
		res.Failure, res.Err = RefreshFailureBackend, err
		return res
	}
	if !acc.Usable() {
		res.Failure = RefreshFailureUnusable
		return res
	}
	if acc.SessionVersion != presented {
		res.Failure = RefreshFailureSuperseded
		return res
	}

	gate := RunGate(ctx, acc.ID, GateDeps{Sanctions: deps.Sanctions, Now: deps.Now, SkipMute: true})
	switch gate.Failure {
	case GateFailureBanned:
		res.Failure, res.Reason, res.Ban = RefreshFailureBanned, gate.Reason, gate.Ban
		return res
	case GateFailureBackend:
		res.Failure, res.Err = RefreshFailureBackend, gate.Err
		return res
	}

	version, err := deps.Accounts.CompareAndIncrementSessionVersion(ctx, acc.ID, presented, nowOr(deps.Now))
	if err != nil {
		switch {
		case errors.Is(err, account.ErrVersionConflict):
			res.Failure = RefreshFailureSuperseded
		case errors.Is(err, account.ErrNotFound):
			res.Failure = RefreshFailureUnusable
		default:
			res.Failure, res.Err = RefreshFailureBackend, err
		}
		return res
	}
	publishVersion(ctx, deps.Cache, deps.Warn, acc.ID, version)

	pair, err := deps.Issuer.IssuePair(identityOf(acc), version)
	if err != nil {
		res.Failure, res.Err = RefreshFailureIssue, err
		return res
	}

	res.Pair = pair
	return res
}
