package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

// GateFailureKind classifies gate outcomes.
type GateFailureKind int

const (
	GateFailureNone GateFailureKind = iota
	GateFailureBanned
	GateFailureBackend
)

// GateResult reports whether the account may authenticate. Mute is reported
// for callers on the posting path and never denies authentication.
type GateResult struct {
	Failure GateFailureKind
	Err     error
	Reason  string
	Ban     *account.Ban
	Mute    *account.Mute
}

// Allowed reports whether authentication may proceed.
func (r GateResult) Allowed() bool {
	return r.Failure == GateFailureNone
}

// GateDeps captures sanction lookup dependencies.
type GateDeps struct {
	Sanctions account.SanctionStore
	Now       func() time.Time
	// SkipMute avoids the mute read on authentication paths.
	SkipMute bool
}

// RunGate evaluates the effectively active ban and mute for the account.
func RunGate(ctx context.Context, accountID string, deps GateDeps) GateResult {
	now := nowOr(deps.Now)
	var res GateResult

	ban, err := deps.Sanctions.ActiveBan(ctx, accountID, now)
	switch {
	case err == nil && ban.EffectivelyActive(now):
		res.Failure = GateFailureBanned
		res.Ban = ban
		res.Reason = BanReason(ban)
	case err != nil && !errors.Is(err, account.ErrNotFound):
		return GateResult{Failure: GateFailureBackend, Err: err}
	}

	if deps.SkipMute {
		return res
	}

	mute, err := deps.Sanctions.ActiveMute(ctx, accountID, now)
	switch {
	case err == nil && mute.EffectivelyActive(now):
		res.Mute = mute
	case err != nil && !errors.Is(err, account.ErrNotFound):
		return GateResult{Failure: GateFailureBackend, Err: err}
	}

	return res
}

// BanReason renders the user-facing ban message.
func BanReason(ban *account.Ban) string {
	if ban.Permanent() {
		return fmt.Sprintf("account permanently banned: %s", ban.Reason)
	}
	return fmt.Sprintf("account banned until %s: %s", ban.ExpiresAt.UTC().Format(time.RFC3339), ban.Reason)
}
