package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/flows"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/google/uuid"
)

// Evaluate answers whether the account may authenticate now. Only an
// effectively active ban denies; an active mute is reported alongside.
func (e *Engine) Evaluate(ctx context.Context, accountID string) (Decision, error) {
	if e == nil || e.store == nil {
		return Decision{}, ErrEngineNotReady
	}

	res := flows.RunGate(ctx, accountID, flows.GateDeps{Sanctions: e.store, Now: e.clock})
	if res.Failure == flows.GateFailureBackend {
		return Decision{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}
	return Decision{
		Allowed: res.Allowed(),
		Reason:  res.Reason,
		Ban:     res.Ban,
		Mute:    res.Mute,
	}, nil
}

// MuteStatus returns the effectively active mute, or nil.
func (e *Engine) MuteStatus(ctx context.Context, accountID string) (*Mute, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	mute, err := e.store.ActiveMute(ctx, accountID, e.now())
	switch {
	case errors.Is(err, account.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !mute.EffectivelyActive(e.now()) {
		return nil, nil
	}
	return mute, nil
}

// BanAccount records a ban and revokes every outstanding session so the
// banned account's access tokens stop working immediately.
func (e *Engine) BanAccount(ctx context.Context, req BanRequest) (*Ban, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	now := e.now()
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AccountID == "" || req.Reason == "" {
		return nil, fmt.Errorf("%w: account and reason are required", ErrInvalidSanction)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrInvalidSanction)
	}

	if err := e.requireAccount(ctx, req.AccountID); err != nil {
		return nil, err
	}
	if _, err := e.store.ActiveBan(ctx, req.AccountID, now); err == nil {
		return nil, ErrAlreadySanctioned
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	ban := &Ban{
		ID:        uuid.NewString(),
		AccountID: req.AccountID,
		ActorID:   req.ActorID,
		Reason:    req.Reason,
		CreatedAt: now,
		ExpiresAt: req.ExpiresAt,
		Active:    true,
	}
	if err := e.store.CreateBan(ctx, ban); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	out := flows.RunLogout(ctx, req.AccountID, flows.LogoutDeps{Accounts: e.store, Cache: e.cache, Warn: e.warnFunc()})
	if out.Failure != flows.LogoutFailureNone {
		// The ban row is durable and login is gated on it; only outstanding
		// access tokens survive until their version is bumped.
		e.logger.ErrorContext(ctx, "ban recorded but session revocation failed", "account_id", req.AccountID, "error", out.Err)
	}

	e.metricInc(metrics.BanCreated)
	e.emitAudit(ctx, audit.Event{
		Type:      AuditBanCreated,
		AccountID: req.AccountID,
		ActorID:   req.ActorID,
		Metadata: map[string]string{
			"reason":     req.Reason,
			"expires_at": formatOptionalTime(req.ExpiresAt),
		},
	}, nil)
	return ban, nil
}

// UnbanAccount lifts every active ban. It reports whether anything changed.
func (e *Engine) UnbanAccount(ctx context.Context, accountID, actorID string) (bool, error) {
	if e == nil || e.store == nil {
		return false, ErrEngineNotReady
	}
	n, err := e.store.LiftBans(ctx, accountID, e.now())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if n > 0 {
		e.metricInc(metrics.BanLifted)
		e.emitAudit(ctx, audit.Event{Type: AuditBanLifted, AccountID: accountID, ActorID: actorID}, nil)
	}
	return n > 0, nil
}

// MuteAccount records a mute. Mutes do not touch the session version.
func (e *Engine) MuteAccount(ctx context.Context, req MuteRequest) (*Mute, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	now := e.now()
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AccountID == "" || req.Reason == "" {
		return nil, fmt.Errorf("%w: account and reason are required", ErrInvalidSanction)
	}
	if !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: mute expiry must be in the future", ErrInvalidSanction)
	}

	if err := e.requireAccount(ctx, req.AccountID); err != nil {
		return nil, err
	}
	if _, err := e.store.ActiveMute(ctx, req.AccountID, now); err == nil {
		return nil, ErrAlreadySanctioned
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	mute := &Mute{
		ID:        uuid.NewString(),
		AccountID: req.AccountID,
		ActorID:   req.ActorID,
		Reason:    req.Reason,
		CreatedAt: now,
		ExpiresAt: req.ExpiresAt,
		Active:    true,
	}
	if err := e.store.CreateMute(ctx, mute); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	e.metricInc(metrics.MuteCreated)
	e.emitAudit(ctx, audit.Event{
		Type:      AuditMuteCreated,
		AccountID: req.AccountID,
		ActorID:   req.ActorID,
		Metadata: map[string]string{
			"reason":     req.Reason,
			"expires_at": formatOptionalTime(&req.ExpiresAt),
		},
	}, nil)
	return mute, nil
}

// UnmuteAccount lifts every active mute.
func (e *Engine) UnmuteAccount(ctx context.Context, accountID, actorID string) (bool, error) {
	if e == nil || e.store == nil {
		return false, ErrEngineNotReady
	}
	n, err := e.store.LiftMutes(ctx, accountID, e.now())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if n > 0 {
		e.metricInc(metrics.MuteLifted)
		e.emitAudit(ctx, audit.Event{Type: AuditMuteLifted, AccountID: accountID, ActorID: actorID}, nil)
	}
	return n > 0, nil
}

func (e *Engine) requireAccount(ctx context.Context, accountID string) error {
	_, err := e.store.AccountByID(ctx, accountID)
	switch {
	case errors.Is(err, account.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
