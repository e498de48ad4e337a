package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// SecretPolicy is the lifetime and reissue cooldown of one purpose. A zero
// TTL means the token never expires on its own.
type SecretPolicy struct {
	TTL      time.Duration
	Cooldown time.Duration
}

// IssueSecretFailureKind classifies issuance failures.
type IssueSecretFailureKind int

const (
	IssueSecretFailureNone IssueSecretFailureKind = iota
	IssueSecretFailureUnsupported
	IssueSecretFailureRateLimited
	IssueSecretFailureBackend
)

// IssueSecretRequest names the account and the purpose of the token.
type IssueSecretRequest struct {
	Purpose   account.Purpose
	AccountID string
	RequestIP string
	UserAgent string
}

// IssueSecretResult carries the cleartext for out-of-band delivery.
type IssueSecretResult struct {
	Failure    IssueSecretFailureKind
	Err        error
	Cleartext  string
	Token      *account.SecretToken
	RetryAfter time.Duration
}

// IssueSecretDeps captures issuance dependencies.
type IssueSecretDeps struct {
	Tokens    account.SecretTokenStore
	Policy    func(account.Purpose) (SecretPolicy, bool)
	NewSecret func() (string, [32]byte, error)
	NewID     func() string
	Now       func() time.Time
}

// RunIssueSecretToken stores the hash of a fresh secret. The store enforces the
// purpose cooldown and supersedes prior unused tokens of the purpose.
func RunIssueSecretToken(ctx context.Context, req IssueSecretRequest, deps IssueSecretDeps) IssueSecretResult {
	policy, ok := deps.Policy(req.Purpose)
	if !ok {
		return IssueSecretResult{Failure: IssueSecretFailureUnsupported}
	}
	now := nowOr(deps.Now)

	cleartext, hash, err := deps.NewSecret()
	if err != nil {
		return IssueSecretResult{Failure: IssueSecretFailureBackend, Err: err}
	}

	tok := &account.SecretToken{
		AccountID: req.AccountID,
		Purpose:   req.Purpose,
		Hash:      hash,
		CreatedAt: now,
		RequestIP: req.RequestIP,
		UserAgent: req.UserAgent,
	}
	if deps.NewID != nil {
		tok.ID = deps.NewID()
	}
	if policy.TTL > 0 {
		exp := now.Add(policy.TTL)
		tok.ExpiresAt = &exp
	}

	var notBefore time.Time
	if policy.Cooldown > 0 {
		notBefore = now.Add(-policy.Cooldown)
	}
	if err := deps.Tokens.CreateSecretToken(ctx, tok, notBefore); err != nil {
		if errors.Is(err, account.ErrCooldown) {
			return IssueSecretResult{Failure: IssueSecretFailureRateLimited, RetryAfter: retryAfter(ctx, deps.Tokens, req, policy, now)}
		}
		return IssueSecretResult{Failure: IssueSecretFailureBackend, Err: err}
	}

	return IssueSecretResult{Cleartext: cleartext, Token: tok}
}

// retryAfter falls back to the full cooldown when the newest issuance cannot
// be read.
func retryAfter(ctx context.Context, tokens account.SecretTokenStore, req IssueSecretRequest, policy SecretPolicy, now time.Time) time.Duration {
	last, err := tokens.LastSecretTokenIssuedAt(ctx, req.AccountID, req.Purpose)
	if err != nil {
		return policy.Cooldown
	}
	if wait := policy.Cooldown - now.Sub(last); wait > 0 && wait <= policy.Cooldown {
		return wait
	}
	return policy.Cooldown
}

// RedeemSecretFailureKind classifies redemption failures.
type RedeemSecretFailureKind int

const (
	RedeemSecretFailureNone RedeemSecretFailureKind = iota
	RedeemSecretFailureUnsupported
	RedeemSecretFailureInvalid
	RedeemSecretFailureExpired
	RedeemSecretFailurePasswordPolicy
	RedeemSecretFailureBackend
)

// RedeemSecretRequest presents a cleartext value. NewPassword is required for
// password resets and ignored otherwise.
type RedeemSecretRequest struct {
	Purpose     account.Purpose
	Value       string
	NewPassword string
}

// RedeemSecretResult reports the affected account and, for resets, the
// committed session version.
type RedeemSecretResult struct {
	Failure   RedeemSecretFailureKind
	Err       error
	AccountID string
	Version   int64
}

// RedeemSecretDeps captures redemption dependencies.
type RedeemSecretDeps struct {
	Tokens     account.SecretTokenStore
	Accounts   account.AccountStore
	Hasher     password.Hasher
	Cache      revocation.Cache
	Supported  func(account.Purpose) bool
	CheckValue func(string) error
	HashValue  func(string) [32]byte
	Now        func() time.Time
	Warn       WarnFunc
}

// RunRedeemSecretToken consumes a token and applies its effect. The token is
// consumed before the effect so a lost race never applies it twice.
func RunRedeemSecretToken(ctx context.Context, req RedeemSecretRequest, deps RedeemSecretDeps) RedeemSecretResult {
	if deps.Supported != nil && !deps.Supported(req.Purpose) {
		return RedeemSecretResult{Failure: RedeemSecretFailureUnsupported}
	}

	if req.Purpose == account.PurposePasswordReset {
		if n := len(req.NewPassword); n < password.MinLength {
			return RedeemSecretResult{Failure: RedeemSecretFailurePasswordPolicy, Err: password.ErrTooShort}
		} else if n > password.MaxLength {
			return RedeemSecretResult{Failure: RedeemSecretFailurePasswordPolicy, Err: password.ErrTooLong}
		}
	}

	if deps.CheckValue != nil {
		if err := deps.CheckValue(req.Value); err != nil {
			return RedeemSecretResult{Failure: RedeemSecretFailureInvalid}
		}
	}

	now := nowOr(deps.Now)
	tok, err := deps.Tokens.SecretTokenByHash(ctx, req.Purpose, deps.HashValue(req.Value))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return RedeemSecretResult{Failure: RedeemSecretFailureInvalid}
		}
		return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err}
	}
	if tok.Used() {
		return RedeemSecretResult{Failure: RedeemSecretFailureInvalid, AccountID: tok.AccountID}
	}
	if tok.Expired(now) {
		return RedeemSecretResult{Failure: RedeemSecretFailureExpired, AccountID: tok.AccountID}
	}

	acc, err := deps.Accounts.AccountByID(ctx, tok.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return RedeemSecretResult{Failure: RedeemSecretFailureInvalid, AccountID: tok.AccountID}
		}
		return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err, AccountID: tok.AccountID}
	}
	if !acc.Usable() {
		return RedeemSecretResult{Failure: RedeemSecretFailureInvalid, AccountID: acc.ID}
	}

	var newHash string
	if req.Purpose == account.PurposePasswordReset {
		if newHash, err = deps.Hasher.Hash(req.NewPassword); err != nil {
			return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err, AccountID: acc.ID}
		}
	}

	if err := deps.Tokens.ConsumeSecretToken(ctx, tok.ID, now); err != nil {
		if errors.Is(err, account.ErrAlreadyUsed) || errors.Is(err, account.ErrNotFound) {
			return RedeemSecretResult{Failure: RedeemSecretFailureInvalid, AccountID: acc.ID}
		}
		return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err, AccountID: acc.ID}
	}

	// The token is spent: finish the effect even if the caller goes away.
	commit := context.WithoutCancel(ctx)
	res := RedeemSecretResult{AccountID: acc.ID}

	switch req.Purpose {
	case account.PurposePasswordReset:
		if err := deps.Accounts.UpdatePasswordHash(commit, acc.ID, newHash); err != nil {
			return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err, AccountID: acc.ID}
		}
		version, err := deps.Accounts.IncrementSessionVersion(commit, acc.ID, time.Time{})
		if err != nil {
			return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err, AccountID: acc.ID}
		}
		publishVersion(commit, deps.Cache, deps.Warn, acc.ID, version)
		res.Version = version
	case account.PurposeEmailVerification:
		if err := deps.Accounts.MarkEmailVerified(commit, acc.ID); err != nil {
			return RedeemSecretResult{Failure: RedeemSecretFailureBackend, Err: err, AccountID: acc.ID}
		}
		res.Version = acc.SessionVersion
	}

	return res
}
