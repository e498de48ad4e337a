package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/flows"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/google/uuid"
)

// IssueSecretToken creates a one-time token of purpose for the account and
// supersedes any unused one. A second request inside the purpose cooldown is
// rejected with RejectRateLimited and RetryAfter set.
func (e *Engine) IssueSecretToken(ctx context.Context, purpose Purpose, accountID string) (IssuedSecret, error) {
	if e == nil || e.store == nil {
		return IssuedSecret{}, ErrEngineNotReady
	}
	if err := e.requireAccount(ctx, accountID); err != nil {
		return IssuedSecret{}, err
	}

	res := flows.RunIssueSecretToken(ctx, flows.IssueSecretRequest{
		Purpose:   purpose,
		AccountID: accountID,
		RequestIP: clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	}, flows.IssueSecretDeps{
		Tokens:    e.store,
		Policy:    e.secretPolicy,
		NewSecret: internal.NewSecretValue,
		NewID:     uuid.NewString,
		Now:       e.clock,
	})

	meta := map[string]string{"purpose": string(purpose)}
	switch res.Failure {
	case flows.IssueSecretFailureNone:
		e.metricInc(metrics.SecretTokenIssued)
		e.emitAudit(ctx, audit.Event{Type: AuditSecretTokenIssued, AccountID: accountID, Metadata: meta}, nil)
		return IssuedSecret{
			Purpose:   purpose,
			AccountID: accountID,
			Cleartext: res.Cleartext,
			ExpiresAt: res.Token.ExpiresAt,
		}, nil
	case flows.IssueSecretFailureUnsupported:
		return IssuedSecret{}, fmt.Errorf("%w: %q", ErrUnsupportedPurpose, purpose)
	case flows.IssueSecretFailureRateLimited:
		e.metricInc(metrics.SecretTokenRateLimited)
		r := reject(RejectRateLimited, "please wait before requesting another token")
		r.RetryAfter = res.RetryAfter
		e.emitAudit(ctx, audit.Event{Type: AuditSecretTokenRateLimited, AccountID: accountID, Metadata: meta}, r)
		return IssuedSecret{}, r
	default:
		e.logger.ErrorContext(ctx, "secret token issue failed", "account_id", accountID, "purpose", string(purpose), "error", res.Err)
		return IssuedSecret{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}
}

// RedeemSecretToken consumes a one-time token and applies its effect. For
// password resets newPassword becomes the account password and every session
// is revoked. It returns the affected account.
func (e *Engine) RedeemSecretToken(ctx context.Context, purpose Purpose, value, newPassword string) (string, error) {
	if e == nil || e.store == nil {
		return "", ErrEngineNotReady
	}

	res := flows.RunRedeemSecretToken(ctx, flows.RedeemSecretRequest{
		Purpose:     purpose,
		Value:       strings.TrimSpace(value),
		NewPassword: newPassword,
	}, flows.RedeemSecretDeps{
		Tokens:     e.store,
		Accounts:   e.store,
		Hasher:     e.hasher,
		Cache:      e.cache,
		Supported:  func(p account.Purpose) bool { _, ok := e.secretPolicy(p); return ok },
		CheckValue: internal.CheckSecretValue,
		HashValue:  internal.HashSecretValue,
		Now:        e.clock,
		Warn:       e.warnFunc(),
	})

	var err error
	switch res.Failure {
	case flows.RedeemSecretFailureNone:
		e.metricInc(metrics.SecretTokenRedeemed)
		meta := map[string]string{"purpose": string(purpose)}
		if res.Version > 0 && purpose == PurposePasswordReset {
			meta["version"] = fmt.Sprint(res.Version)
		}
		e.emitAudit(ctx, audit.Event{Type: AuditSecretTokenRedeemed, AccountID: res.AccountID, Metadata: meta}, nil)
		return res.AccountID, nil
	case flows.RedeemSecretFailureUnsupported:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPurpose, purpose)
	case flows.RedeemSecretFailurePasswordPolicy:
		return "", fmt.Errorf("%w: %w", ErrPasswordPolicy, res.Err)
	case flows.RedeemSecretFailureInvalid:
		err = reject(RejectTokenInvalidOrExpired, "token is invalid or has already been used").withCause(ErrSecretTokenInvalid)
	case flows.RedeemSecretFailureExpired:
		err = reject(RejectTokenInvalidOrExpired, "token has expired").withCause(ErrSecretTokenExpired)
	default:
		e.logger.ErrorContext(ctx, "secret token redeem failed", "account_id", res.AccountID, "purpose", string(purpose), "error", res.Err)
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, res.Err)
	}

	e.metricInc(metrics.SecretTokenRejected)
	e.emitAudit(ctx, audit.Event{Type: AuditSecretTokenRejected, AccountID: res.AccountID, Metadata: map[string]string{"purpose": string(purpose)}}, err)
	return "", err
}

// RequestPasswordReset issues a reset token for the account with this email
// and hands it to the Notifier. Unknown or unusable accounts return nil.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := e.accountByEmail(ctx, email)
	if err != nil || acc == nil {
		return err
	}

	issued, err := e.IssueSecretToken(ctx, PurposePasswordReset, acc.ID)
	if err != nil {
		return err
	}
	if e.notifier == nil {
		e.logger.WarnContext(ctx, "no notifier configured, password reset token not delivered", "account_id", acc.ID)
		return nil
	}
	if err := e.notifier.SendPasswordReset(ctx, acc, issued.Cleartext, issued.ExpiresAt); err != nil {
		e.logger.WarnContext(ctx, "password reset delivery failed", "account_id", acc.ID, "error", err)
	}
	return nil
}

// ResendVerification issues a fresh verification token. Unknown, unusable
// and already verified accounts return nil.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	acc, err := e.accountByEmail(ctx, email)
	if err != nil || acc == nil || acc.EmailVerified {
		return err
	}
	return e.SendVerification(ctx, acc.ID)
}

// SendVerification issues and delivers a verification token for a known
// account, typically right after registration.
func (e *Engine) SendVerification(ctx context.Context, accountID string) error {
	issued, err := e.IssueSecretToken(ctx, PurposeEmailVerification, accountID)
	if err != nil {
		return err
	}
	if e.notifier == nil {
		e.logger.WarnContext(ctx, "no notifier configured, verification token not delivered", "account_id", accountID)
		return nil
	}
	acc, err := e.store.AccountByID(ctx, accountID)
	if err != nil {
		e.logger.WarnContext(ctx, "verification delivery skipped", "account_id", accountID, "error", err)
		return nil
	}
	if err := e.notifier.SendEmailVerification(ctx, acc, issued.Cleartext); err != nil {
		e.logger.WarnContext(ctx, "verification delivery failed", "account_id", accountID, "error", err)
	}
	return nil
}

func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	_, err := e.RedeemSecretToken(ctx, PurposePasswordReset, token, newPassword)
	return err
}

func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	_, err := e.RedeemSecretToken(ctx, PurposeEmailVerification, token, "")
	return err
}

// HashPassword hashes a new password with the engine's policy. Hosts use it
// when creating accounts.
func (e *Engine) HashPassword(secret string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	h, err := e.hasher.Hash(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPasswordPolicy, err)
	}
	return h, nil
}

// accountByEmail returns nil, nil for anything that must stay silent.
func (e *Engine) accountByEmail(ctx context.Context, email string) (*Account, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	acc, err := e.store.AccountByIdentifier(ctx, email)
	switch {
	case errors.Is(err, account.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if acc.Email != email || !acc.Usable() {
		return nil, nil
	}
	return acc, nil
}
