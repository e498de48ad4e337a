package auth

import (
	"context"
	"fmt"

	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/flows"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
)

// ValidateAccess verifies an access token and checks its version against the
// authoritative session version.
//
// A well-formed token without subject or version yields ErrNotVersioned; the
// caller decides whether the request may proceed anonymously.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	start := e.now()
	defer e.observeSince(metrics.ValidateLatency, start)

	res := flows.RunValidate(ctx, token, flows.ValidateDeps{
		Issuer:   e.tokens,
		Accounts: e.store,
		Cache:    e.cache,
		Warn:     e.warnFunc(),
	})

	switch res.Failure {
	case flows.ValidateFailureInvalidToken:
		e.metricInc(metrics.ValidateRejected)
		return nil, reject(RejectInvalidToken, "")
	case flows.ValidateFailureUnversioned:
		e.metricInc(metrics.ValidateRejected)
		return nil, ErrNotVersioned
	case flows.ValidateFailureBackend:
		e.logger.ErrorContext(ctx, "validate backend failure", "account_id", res.Claims.AccountID(), "error", res.Err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}

	if res.CacheHit {
		e.metricInc(metrics.CacheHit)
	} else {
		e.metricInc(metrics.CacheMiss)
	}

	accountID := res.Claims.AccountID()
	switch res.Failure {
	case flows.ValidateFailureUnusable:
		e.metricInc(metrics.ValidateUnusable)
		err := reject(RejectAccountUnusable, reasonUnusable)
		e.emitAudit(ctx, audit.Event{Type: AuditAccountUnusable, AccountID: accountID}, err)
		return nil, err
	case flows.ValidateFailureSuperseded:
		e.metricInc(metrics.ValidateSuperseded)
		err := reject(RejectSessionSuperseded, reasonSuperseded)
		e.emitAudit(ctx, audit.Event{Type: AuditSessionSuperseded, AccountID: accountID, Metadata: versionMeta(*res.Claims.Version)}, err)
		return nil, err
	}

	e.metricInc(metrics.ValidateAllowed)

	c := res.Claims
	out := &AuthResult{
		AccountID:   accountID,
		Version:     res.Version,
		Username:    c.Username,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		Role:        c.Role,
		TokenID:     c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// ValidateRefreshToken checks signature, expiry and type only. It never says
// why a token is untrusted.
func (e *Engine) ValidateRefreshToken(token string) (valid bool, accountID string, version int64) {
	if e == nil || e.tokens == nil {
		return false, "", 0
	}
	return e.tokens.ValidateRefreshToken(token)
}
