package auth

import (
	"log/slog"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/flows"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/rate"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// Engine runs the session workflows. It is safe for concurrent use once
// built and must not be copied.
type Engine struct {
	config    Config
	store     account.Store
	cache     revocation.Cache
	tokens    *jwt.Manager
	hasher    password.Hasher
	dummyHash string
	throttle  *rate.Limiter
	notifier  Notifier
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	clock     func() time.Time
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Config returns a copy of the effective configuration without key material.
func (e *Engine) Config() Config {
	cfg := e.config
	cfg.JWT.PrivateKey = nil
	cfg.JWT.PublicKey = nil
	return cfg
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

func (e *Engine) warnFunc() flows.WarnFunc {
	return func(msg string, args ...any) {
		e.logger.Warn(msg, args...)
	}
}

// loginThrottle returns an untyped nil when throttling is off so the flow's
// nil check holds.
func (e *Engine) loginThrottle() flows.LoginThrottle {
	if e.throttle == nil {
		return nil
	}
	return e.throttle
}

func (e *Engine) secretPolicy(p Purpose) (flows.SecretPolicy, bool) {
	switch p {
	case PurposePasswordReset:
		return flows.SecretPolicy{
			TTL:      e.config.SecretToken.PasswordResetTTL,
			Cooldown: e.config.SecretToken.PasswordResetCooldown,
		}, true
	case PurposeEmailVerification:
		return flows.SecretPolicy{
			TTL:      e.config.SecretToken.EmailVerificationTTL,
			Cooldown: e.config.SecretToken.EmailVerificationCooldown,
		}, true
	default:
		return flows.SecretPolicy{}, false
	}
}

func toTokenPair(p jwt.Pair) TokenPair {
	return TokenPair{
		AccessToken:      p.Access.Value,
		RefreshToken:     p.Refresh.Value,
		AccessExpiresAt:  p.Access.ExpiresAt,
		RefreshExpiresAt: p.Refresh.ExpiresAt,
		Version:          p.Version,
	}
}
