package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/flows"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/rate"
)

const (
	reasonUnusable   = "account not usable"
	reasonSuperseded = "session superseded, please re-authenticate"
)

// Login authenticates by username or email and starts a new session
// generation. Unknown identifiers, wrong passwords and inactive accounts are
// indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (TokenPair, error) {
	if e == nil || e.store == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	start := e.now()
	defer e.observeSince(metrics.LoginLatency, start)

	res := flows.RunLogin(ctx, identifier, secret, flows.LoginDeps{
		Accounts:       e.store,
		Sanctions:      e.store,
		Hasher:         e.hasher,
		DummyHash:      e.dummyHash,
		Issuer:         e.tokens,
		Cache:          e.cache,
		Throttle:       e.loginThrottle(),
		UpgradeOnLogin: e.config.Password.UpgradeOnLogin,
		Now:            e.clock,
		Warn:           e.warnFunc(),
	})

	var err error
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(metrics.LoginSuccess)
		if res.Rehashed {
			e.metricInc(metrics.PasswordRehashed)
		}
		e.emitAudit(ctx, audit.Event{Type: AuditLoginSuccess, AccountID: res.AccountID, Metadata: versionMeta(res.Pair.Version)}, nil)
		return toTokenPair(res.Pair), nil
	case flows.LoginFailureRateLimited:
		if res.Err != nil && !errors.Is(res.Err, rate.ErrRateLimited) {
			e.logger.WarnContext(ctx, "login throttle unavailable, refusing login", "error", res.Err)
		}
		e.metricInc(metrics.LoginRateLimited)
		err = reject(RejectRateLimited, "too many failed login attempts")
	case flows.LoginFailureInvalidCredentials:
		e.metricInc(metrics.LoginFailure)
		err = reject(RejectInvalidCredentials, "")
	case flows.LoginFailureUnverified:
		e.metricInc(metrics.LoginUnverified)
		err = reject(RejectAccountUnusable, res.Reason).withCause(ErrEmailUnverified)
		e.emitAudit(ctx, audit.Event{Type: AuditAccountUnusable, AccountID: res.AccountID}, err)
		return TokenPair{}, err
	case flows.LoginFailureBanned:
		e.metricInc(metrics.LoginBanned)
		err = banRejection(res.Reason, res.Ban)
	case flows.LoginFailureBackend:
		e.logger.ErrorContext(ctx, "login backend failure", "account_id", res.AccountID, "error", res.Err)
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	default:
		e.logger.ErrorContext(ctx, "token issue failed", "account_id", res.AccountID, "error", res.Err)
		err = fmt.Errorf("issue tokens: %w", res.Err)
	}

	e.emitAudit(ctx, audit.Event{Type: AuditLoginFailure, AccountID: res.AccountID, Metadata: metaReason(res.Reason)}, err)
	return TokenPair{}, err
}

// Refresh rotates a refresh token into a new pair. A superseded token, a
// replay, and the loser of two concurrent refreshes all get
// ErrSessionSuperseded.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || e.store == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, flows.RefreshDeps{
		Accounts:  e.store,
		Sanctions: e.store,
		Issuer:    e.tokens,
		Cache:     e.cache,
		Now:       e.clock,
		Warn:      e.warnFunc(),
	})

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(metrics.RefreshSuccess)
		e.emitAudit(ctx, audit.Event{Type: AuditRefreshSuccess, AccountID: res.AccountID, Metadata: versionMeta(res.Pair.Version)}, nil)
		return toTokenPair(res.Pair), nil
	case flows.RefreshFailureInvalidToken:
		e.metricInc(metrics.RefreshFailure)
		return TokenPair{}, reject(RejectInvalidToken, "")
	case flows.RefreshFailureUnusable:
		e.metricInc(metrics.RefreshFailure)
		err = reject(RejectAccountUnusable, reasonUnusable)
		e.emitAudit(ctx, audit.Event{Type: AuditAccountUnusable, AccountID: res.AccountID}, err)
		return TokenPair{}, err
	case flows.RefreshFailureSuperseded:
		e.metricInc(metrics.RefreshSuperseded)
		err = reject(RejectSessionSuperseded, reasonSuperseded)
		e.emitAudit(ctx, audit.Event{Type: AuditRefreshSuperseded, AccountID: res.AccountID, Metadata: versionMeta(res.PresentedVersion)}, err)
		return TokenPair{}, err
	case flows.RefreshFailureBanned:
		e.metricInc(metrics.RefreshFailure)
		err = banRejection(res.Reason, res.Ban)
		e.emitAudit(ctx, audit.Event{Type: AuditAccountUnusable, AccountID: res.AccountID, Metadata: metaReason(res.Reason)}, err)
		return TokenPair{}, err
	case flows.RefreshFailureBackend:
		e.metricInc(metrics.RefreshFailure)
		e.logger.ErrorContext(ctx, "refresh backend failure", "account_id", res.AccountID, "error", res.Err)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	default:
		e.metricInc(metrics.RefreshFailure)
		e.logger.ErrorContext(ctx, "token issue failed", "account_id", res.AccountID, "error", res.Err)
		return TokenPair{}, fmt.Errorf("issue tokens: %w", res.Err)
	}
}

// Logout revokes every outstanding token of the account.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	return e.bumpSessions(ctx, accountID, "")
}

// RevokeSessions is the administrative form of Logout. actorID is recorded in
// the audit trail.
func (e *Engine) RevokeSessions(ctx context.Context, accountID, actorID string) error {
	return e.bumpSessions(ctx, accountID, actorID)
}

func (e *Engine) bumpSessions(ctx context.Context, accountID, actorID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, accountID, flows.LogoutDeps{
		Accounts: e.store,
		Cache:    e.cache,
		Warn:     e.warnFunc(),
	})

	var err error
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(metrics.Logout)
	case flows.LogoutFailureNotFound:
		err = fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	default:
		e.logger.ErrorContext(ctx, "logout backend failure", "account_id", accountID, "error", res.Err)
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}

	e.emitAudit(ctx, audit.Event{Type: AuditLogout, AccountID: accountID, ActorID: actorID, Metadata: versionMeta(res.Version)}, err)
	return err
}

func banRejection(reason string, ban *Ban) *Rejection {
	r := reject(RejectAccountBanned, reason)
	if ban != nil && ban.ExpiresAt != nil {
		until := *ban.ExpiresAt
		r.BanUntil = &until
	}
	return r
}

func versionMeta(v int64) map[string]string {
	if v == 0 {
		return nil
	}
	return map[string]string{"version": strconv.FormatInt(v, 10)}
}
