package flows

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
	"github.com/MustafaxCmrt/Social-Network-sub000/storage/memory"
)

const testPassword = "correct-horse-battery"

// recordingHasher wraps a real hasher and records every hash it verified
// against.
type recordingHasher struct {
	password.Hasher

	mu       sync.Mutex
	verified []string
}

func (h *recordingHasher) Verify(pw, encoded string) (bool, error) {
	h.mu.Lock()
	h.verified = append(h.verified, encoded)
	h.mu.Unlock()
	return h.Hasher.Verify(pw, encoded)
}

func (h *recordingHasher) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.verified))
	copy(out, h.verified)
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store     *memory.Store
	cache     *revocation.Memory
	issuer    *jwt.Manager
	hasher    *recordingHasher
	dummyHash string
	clock     *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	base, err := password.NewArgon2(password.Argon2Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	dummy, err := base.Hash("dummy-password-never-matches")
	if err != nil {
		t.Fatalf("dummy hash: %v", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	issuer, err := jwt.NewManager(jwt.Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: jwt.MethodEd25519,
		PrivateKey:    priv,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	c := &clock{now: time.Now()}
	return &fixture{
		store:     memory.New(),
		cache:     revocation.NewMemory(5*time.Minute, revocation.WithClock(c.Now)),
		issuer:    issuer,
		hasher:    &recordingHasher{Hasher: base},
		dummyHash: dummy,
		clock:     c,
	}
}

func (f *fixture) addAccount(t *testing.T, username string, version int64, mutate func(*account.Account)) *account.Account {
	t.Helper()
	hash, err := f.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	acc := &account.Account{
		Username:       username,
		Email:          username + "@example.com",
		Role:           "member",
		PasswordHash:   hash,
		Active:         true,
		EmailVerified:  true,
		SessionVersion: version,
	}
	if mutate != nil {
		mutate(acc)
	}
	if err := f.store.CreateAccount(context.Background(), acc); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return acc
}

func (f *fixture) version(t *testing.T, id string) int64 {
	t.Helper()
	acc, err := f.store.AccountByID(context.Background(), id)
	if err != nil {
		t.Fatalf("AccountByID: %v", err)
	}
	return acc.SessionVersion
}

func (f *fixture) loginDeps() LoginDeps {
	return LoginDeps{
		Accounts:  f.store,
		Sanctions: f.store,
		Hasher:    f.hasher,
		DummyHash: f.dummyHash,
		Issuer:    f.issuer,
		Cache:     f.cache,
		Now:       f.clock.Now,
	}
}

func (f *fixture) refreshDeps() RefreshDeps {
	return RefreshDeps{Accounts: f.store, Sanctions: f.store, Issuer: f.issuer, Cache: f.cache, Now: f.clock.Now}
}

func (f *fixture) logoutDeps() LogoutDeps {
	return LogoutDeps{Accounts: f.store, Cache: f.cache}
}

func (f *fixture) validateDeps() ValidateDeps {
	return ValidateDeps{Issuer: f.issuer, Accounts: f.store, Cache: f.cache}
}
