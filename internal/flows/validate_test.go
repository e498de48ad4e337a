package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
)

type countingAccounts struct {
	account.AccountStore
	byID int
}

func (c *countingAccounts) AccountByID(ctx context.Context, id string) (*account.Account, error) {
	c.byID++
	return c.AccountStore.AccountByID(ctx, id)
}

func TestValidateMissThenFillAcceptsCurrentVersion(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 4, nil)
	tok, _ := f.issuer.IssueAccessToken(jwt.Identity{AccountID: acc.ID}, 4)

	counting := &countingAccounts{AccountStore: f.store}
	deps := f.validateDeps()
	deps.Accounts = counting

	first := RunValidate(context.Background(), tok.Value, deps)
	if first.Failure != ValidateFailureNone || first.CacheHit {
		t.Fatalf("expected store-backed accept, got %v hit=%v", first.Failure, first.CacheHit)
	}
	second := RunValidate(context.Background(), tok.Value, deps)
	if second.Failure != ValidateFailureNone || !second.CacheHit {
		t.Fatalf("expected cached accept, got %v hit=%v", second.Failure, second.CacheHit)
	}
	if counting.byID != 1 {
		t.Fatalf("expected one store read, got %d", counting.byID)
	}
}

func TestValidateRejectsAfterBumpBeforeTTL(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)
	tok, _ := f.issuer.IssueAccessToken(jwt.Identity{AccountID: acc.ID}, 0)

	if r := RunValidate(context.Background(), tok.Value, f.validateDeps()); r.Failure != ValidateFailureNone {
		t.Fatalf("expected accept, got %v", r.Failure)
	}

	RunLogout(context.Background(), acc.ID, f.logoutDeps())

	r := RunValidate(context.Background(), tok.Value, f.validateDeps())
	if r.Failure != ValidateFailureSuperseded || !r.CacheHit {
		t.Fatalf("expected cached superseded, got %v hit=%v", r.Failure, r.CacheHit)
	}
}

func TestValidateUnusableAccountDoesNotFillCache(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, func(a *account.Account) { a.Active = false })
	tok, _ := f.issuer.IssueAccessToken(jwt.Identity{AccountID: acc.ID}, 0)

	r := RunValidate(context.Background(), tok.Value, f.validateDeps())
	if r.Failure != ValidateFailureUnusable {
		t.Fatalf("expected unusable, got %v", r.Failure)
	}
	if _, ok, _ := f.cache.Get(context.Background(), acc.ID); ok {
		t.Fatal("unusable account must not populate the cache")
	}

	ghost, _ := f.issuer.IssueAccessToken(jwt.Identity{AccountID: "ghost"}, 0)
	if r := RunValidate(context.Background(), ghost.Value, f.validateDeps()); r.Failure != ValidateFailureUnusable {
		t.Fatalf("expected unusable for missing account, got %v", r.Failure)
	}
}

func TestValidateNewerClaimThanCacheRereadsStore(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 0, nil)
	_ = f.cache.Fill(context.Background(), acc.ID, 0)

	// Another node bumped the version without touching this cache.
	if _, err := f.store.IncrementSessionVersion(context.Background(), acc.ID, time.Time{}); err != nil {
		t.Fatalf("increment: %v", err)
	}
	tok, _ := f.issuer.IssueAccessToken(jwt.Identity{AccountID: acc.ID}, 1)

	r := RunValidate(context.Background(), tok.Value, f.validateDeps())
	if r.Failure != ValidateFailureNone || r.CacheHit {
		t.Fatalf("expected store-backed accept, got %v hit=%v", r.Failure, r.CacheHit)
	}
	if v, _, _ := f.cache.Get(context.Background(), acc.ID); v != 1 {
		t.Fatalf("expected cache refreshed to 1, got %d", v)
	}
}

func TestValidateClassifiesTokens(t *testing.T) {
	f := newFixture(t)

	if r := RunValidate(context.Background(), "garbage", f.validateDeps()); r.Failure != ValidateFailureInvalidToken {
		t.Fatalf("expected invalid token, got %v", r.Failure)
	}

	refresh, _ := f.issuer.IssueRefreshToken("acc", 0)
	if r := RunValidate(context.Background(), refresh.Value, f.validateDeps()); r.Failure != ValidateFailureInvalidToken {
		t.Fatalf("refresh token must not validate as access, got %v", r.Failure)
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("down")
}
func (failingCache) Fill(context.Context, string, int64) error       { return errors.New("down") }
func (failingCache) Invalidate(context.Context, string, int64) error { return errors.New("down") }

func TestValidateFallsBackToStoreWhenCacheFails(t *testing.T) {
	f := newFixture(t)
	acc := f.addAccount(t, "alice", 2, nil)
	tok, _ := f.issuer.IssueAccessToken(jwt.Identity{AccountID: acc.ID}, 2)

	deps := f.validateDeps()
	deps.Cache = failingCache{}
	var warned int
	deps.Warn = func(string, ...any) { warned++ }

	if r := RunValidate(context.Background(), tok.Value, deps); r.Failure != ValidateFailureNone {
		t.Fatalf("expected accept from store, got %v", r.Failure)
	}
	if warned == 0 {
		t.Fatal("expected cache failure to be logged")
	}
}
