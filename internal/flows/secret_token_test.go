package flows

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal"
	"github.com/MustafaxCmrt/Social-Network-sub000/storage/memory"
)

func testPolicy(p account.Purpose) (SecretPolicy, bool) {
	switch p {
	case account.PurposePasswordReset:
		return SecretPolicy{TTL: time.Hour, Cooldown: 10 * time.Minute}, true
	case account.PurposeEmailVerification:
		return SecretPolicy{Cooldown: 2 * time.Minute}, true
	}
	return SecretPolicy{}, false
}

func (f *fixture) issueDeps() IssueSecretDeps {
	return IssueSecretDeps{Tokens: f.store, Policy: testPolicy, NewSecret: internal.NewSecretValue, Now: f.clock.Now}
}

func (f *fixture) redeemDeps() RedeemSecretDeps {
	return RedeemSecretDeps{
		Tokens:     f.store,
		Accounts:   f.store,
		Hasher:     f.hasher,
		Cache:      f.cache,
		Supported:  account.Purpose.Valid,
		CheckValue: internal.CheckSecretValue,
		HashValue:  internal.HashSecretValue,
		Now:        f.clock.Now,
	}
}

func TestIssueSecretTokenCooldownAndSupersede(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)
	req := IssueSecretRequest{Purpose: account.PurposePasswordReset, AccountID: acc.ID}

	first := RunIssueSecretToken(context.Background(), req, f.issueDeps())
	if first.Failure != IssueSecretFailureNone || first.Cleartext == "" {
		t.Fatalf("first issue: %v", first.Failure)
	}
	if first.Token.Hash != internal.HashSecretValue(first.Cleartext) {
		t.Fatal("only the hash of the cleartext may be stored")
	}

	f.clock.Advance(9 * time.Minute)
	second := RunIssueSecretToken(context.Background(), req, f.issueDeps())
	if second.Failure != IssueSecretFailureRateLimited || second.RetryAfter != time.Minute {
		t.Fatalf("expected rate limited with 1m retry, got %v %v", second.Failure, second.RetryAfter)
	}

	f.clock.Advance(time.Minute)
	third := RunIssueSecretToken(context.Background(), req, f.issueDeps())
	if third.Failure != IssueSecretFailureNone {
		t.Fatalf("third issue: %v", third.Failure)
	}

	redeemFirst := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: first.Cleartext, NewPassword: "brand-new-password",
	}, f.redeemDeps())
	if redeemFirst.Failure != RedeemSecretFailureInvalid {
		t.Fatalf("superseded token must be invalid, got %v", redeemFirst.Failure)
	}

	redeemThird := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: third.Cleartext, NewPassword: "brand-new-password",
	}, f.redeemDeps())
	if redeemThird.Failure != RedeemSecretFailureNone {
		t.Fatalf("expected redeem success, got %v %v", redeemThird.Failure, redeemThird.Err)
	}
}

// slowTokens delays every write so concurrent issuers overlap.
type slowTokens struct {
	*memory.Store
	delay time.Duration
}

func (s slowTokens) CreateSecretToken(ctx context.Context, token *account.SecretToken, notBefore time.Time) error {
	time.Sleep(s.delay)
	return s.Store.CreateSecretToken(ctx, token, notBefore)
}

func TestConcurrentIssueHonoursCooldown(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)
	deps := f.issueDeps()
	deps.Tokens = slowTokens{Store: f.store, delay: 5 * time.Millisecond}
	req := IssueSecretRequest{Purpose: account.PurposePasswordReset, AccountID: acc.ID}

	var issued, limited atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch res := RunIssueSecretToken(context.Background(), req, deps); res.Failure {
			case IssueSecretFailureNone:
				issued.Add(1)
			case IssueSecretFailureRateLimited:
				if res.RetryAfter <= 0 || res.RetryAfter > 10*time.Minute {
					t.Errorf("unexpected RetryAfter %v", res.RetryAfter)
				}
				limited.Add(1)
			default:
				t.Errorf("unexpected failure %v: %v", res.Failure, res.Err)
			}
		}()
	}
	wg.Wait()

	if issued.Load() != 1 || limited.Load() != 7 {
		t.Fatalf("expected one issuance inside the cooldown, got %d issued %d limited", issued.Load(), limited.Load())
	}
}

func TestCooldownIsPerPurpose(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)

	reset := RunIssueSecretToken(context.Background(), IssueSecretRequest{Purpose: account.PurposePasswordReset, AccountID: acc.ID}, f.issueDeps())
	verify := RunIssueSecretToken(context.Background(), IssueSecretRequest{Purpose: account.PurposeEmailVerification, AccountID: acc.ID}, f.issueDeps())
	if reset.Failure != IssueSecretFailureNone || verify.Failure != IssueSecretFailureNone {
		t.Fatalf("different purposes must not share a cooldown: %v %v", reset.Failure, verify.Failure)
	}
	if verify.Token.ExpiresAt != nil {
		t.Fatal("verification tokens have no expiry")
	}
}

func TestRedeemPasswordResetRevokesSessions(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)

	login := RunLogin(context.Background(), "alice", testPassword, f.loginDeps())
	if login.Failure != LoginFailureNone {
		t.Fatalf("login: %v", login.Failure)
	}
	if v := RunValidate(context.Background(), login.Pair.Access.Value, f.validateDeps()); v.Failure != ValidateFailureNone {
		t.Fatalf("validate: %v", v.Failure)
	}

	issued := RunIssueSecretToken(context.Background(), IssueSecretRequest{Purpose: account.PurposePasswordReset, AccountID: acc.ID}, f.issueDeps())
	before := f.version(t, acc.ID)

	res := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: issued.Cleartext, NewPassword: "brand-new-password",
	}, f.redeemDeps())
	if res.Failure != RedeemSecretFailureNone {
		t.Fatalf("redeem: %v %v", res.Failure, res.Err)
	}
	if after := f.version(t, acc.ID); after != before+1 || res.Version != after {
		t.Fatalf("expected version %d, got %d (result %d)", before+1, after, res.Version)
	}

	if v := RunValidate(context.Background(), login.Pair.Access.Value, f.validateDeps()); v.Failure != ValidateFailureSuperseded {
		t.Fatalf("expected old access superseded, got %v", v.Failure)
	}

	if r := RunLogin(context.Background(), "alice", testPassword, f.loginDeps()); r.Failure != LoginFailureInvalidCredentials {
		t.Fatalf("old password must stop working, got %v", r.Failure)
	}
	if r := RunLogin(context.Background(), "alice", "brand-new-password", f.loginDeps()); r.Failure != LoginFailureNone {
		t.Fatalf("new password must work, got %v", r.Failure)
	}

	again := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: issued.Cleartext, NewPassword: "another-password-1",
	}, f.redeemDeps())
	if again.Failure != RedeemSecretFailureInvalid {
		t.Fatalf("second redemption must be invalid, got %v", again.Failure)
	}
}

func TestRedeemDistinguishesExpired(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)

	issued := RunIssueSecretToken(context.Background(), IssueSecretRequest{Purpose: account.PurposePasswordReset, AccountID: acc.ID}, f.issueDeps())
	f.clock.Advance(time.Hour)

	res := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: issued.Cleartext, NewPassword: "brand-new-password",
	}, f.redeemDeps())
	if res.Failure != RedeemSecretFailureExpired {
		t.Fatalf("expected expired, got %v", res.Failure)
	}

	unknown, _, _ := internal.NewSecretValue()
	res = RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: unknown, NewPassword: "brand-new-password",
	}, f.redeemDeps())
	if res.Failure != RedeemSecretFailureInvalid {
		t.Fatalf("expected invalid, got %v", res.Failure)
	}
}

func TestRedeemPasswordPolicyKeepsToken(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)
	issued := RunIssueSecretToken(context.Background(), IssueSecretRequest{Purpose: account.PurposePasswordReset, AccountID: acc.ID}, f.issueDeps())

	res := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: issued.Cleartext, NewPassword: "short",
	}, f.redeemDeps())
	if res.Failure != RedeemSecretFailurePasswordPolicy {
		t.Fatalf("expected password policy failure, got %v", res.Failure)
	}

	res = RunRedeemSecretToken(context.Background(), RedeemSecretRequest{
		Purpose: account.PurposePasswordReset, Value: issued.Cleartext, NewPassword: "long-enough-password",
	}, f.redeemDeps())
	if res.Failure != RedeemSecretFailureNone {
		t.Fatalf("token must survive a policy rejection, got %v", res.Failure)
	}
}

func TestRedeemEmailVerification(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, func(a *account.Account) { a.EmailVerified = false })

	issued := RunIssueSecretToken(context.Background(), IssueSecretRequest{Purpose: account.PurposeEmailVerification, AccountID: acc.ID}, f.issueDeps())
	res := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{Purpose: account.PurposeEmailVerification, Value: issued.Cleartext}, f.redeemDeps())
	if res.Failure != RedeemSecretFailureNone {
		t.Fatalf("redeem: %v", res.Failure)
	}

	stored, _ := f.store.AccountByID(context.Background(), acc.ID)
	if !stored.EmailVerified || stored.SessionVersion != 0 {
		t.Fatalf("expected verified without version bump, got %+v", stored)
	}

	// A reset token is not a verification token.
	wrong := RunRedeemSecretToken(context.Background(), RedeemSecretRequest{Purpose: account.PurposePasswordReset, Value: issued.Cleartext, NewPassword: "long-enough-password"}, f.redeemDeps())
	if wrong.Failure != RedeemSecretFailureInvalid {
		t.Fatalf("cross-purpose redemption must be invalid, got %v", wrong.Failure)
	}
}
