package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

// Integration tests run against a throwaway postgres:16-alpine container:
//
//	GO_TEST_INTEGRATION=1 go test ./storage/postgres -v -count=1

func startPostgres(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	var st *Store
	require.Eventually(t, func() bool {
		st, err = New(ctx, dsn)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(st.Close)

	require.NoError(t, st.Migrate(ctx))
	return st
}

func seedAccount(t *testing.T, st *Store, username string) *account.Account {
	t.Helper()
	acc := &account.Account{
		Username:      username,
		Email:         username + "@Example.com",
		Role:          "member",
		PasswordHash:  "hash",
		Active:        true,
		EmailVerified: true,
	}
	require.NoError(t, st.CreateAccount(context.Background(), acc))
	return acc
}

func TestIntegration_AccountLookupAndUniqueness(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	acc := seedAccount(t, st, "alice")

	got, err := st.AccountByIdentifier(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)
	require.Equal(t, "alice@example.com", got.Email)

	got, err = st.AccountByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)

	_, err = st.AccountByIdentifier(ctx, "Alice")
	require.ErrorIs(t, err, account.ErrNotFound)

	dup := &account.Account{Username: "alice2", Email: "alice@example.com", PasswordHash: "h"}
	require.ErrorIs(t, st.CreateAccount(ctx, dup), account.ErrAlreadyExists)

	require.NoError(t, st.SoftDelete(ctx, acc.ID, time.Now()))
	_, err = st.AccountByIdentifier(ctx, "alice")
	require.ErrorIs(t, err, account.ErrNotFound)

	got, err = st.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
}

func TestIntegration_SessionVersionIsAtomic(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	acc := seedAccount(t, st, "bob")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.IncrementSessionVersion(ctx, acc.ID, time.Now()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := st.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	require.EqualValues(t, n, got.SessionVersion)
	require.NotNil(t, got.LastAuthenticatedAt)

	v, err := st.CompareAndIncrementSessionVersion(ctx, acc.ID, n, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, n+1, v)

	_, err = st.CompareAndIncrementSessionVersion(ctx, acc.ID, n, time.Time{})
	require.ErrorIs(t, err, account.ErrVersionConflict)

	_, err = st.CompareAndIncrementSessionVersion(ctx, "missing", 0, time.Time{})
	require.ErrorIs(t, err, account.ErrNotFound)
}

func TestIntegration_Sanctions(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	acc := seedAccount(t, st, "carol")
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	require.NoError(t, st.CreateBan(ctx, &account.Ban{AccountID: acc.ID, Reason: "old", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: &past, Active: true}))
	_, err := st.ActiveBan(ctx, acc.ID, now)
	require.ErrorIs(t, err, account.ErrNotFound)

	require.NoError(t, st.CreateBan(ctx, &account.Ban{AccountID: acc.ID, Reason: "spam", CreatedAt: now, Active: true}))
	ban, err := st.ActiveBan(ctx, acc.ID, now)
	require.NoError(t, err)
	require.True(t, ban.Permanent())
	require.Equal(t, "spam", ban.Reason)

	n, err := st.LiftBans(ctx, acc.ID, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	_, err = st.ActiveBan(ctx, acc.ID, now)
	require.ErrorIs(t, err, account.ErrNotFound)

	require.NoError(t, st.CreateMute(ctx, &account.Mute{AccountID: acc.ID, Reason: "flood", CreatedAt: now, ExpiresAt: now.Add(time.Hour), Active: true}))
	mute, err := st.ActiveMute(ctx, acc.ID, now)
	require.NoError(t, err)
	require.Equal(t, "flood", mute.Reason)
	_, err = st.ActiveMute(ctx, acc.ID, now.Add(2*time.Hour))
	require.ErrorIs(t, err, account.ErrNotFound)

	err = st.CreateBan(ctx, &account.Ban{AccountID: "missing", CreatedAt: now, Active: true})
	require.ErrorIs(t, err, account.ErrNotFound)
}

func TestIntegration_SecretTokens(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	acc := seedAccount(t, st, "dave")
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := st.LastSecretTokenIssuedAt(ctx, acc.ID, account.PurposePasswordReset)
	require.ErrorIs(t, err, account.ErrNotFound)

	exp := now.Add(time.Hour)
	first := &account.SecretToken{AccountID: acc.ID, Purpose: account.PurposePasswordReset, Hash: [32]byte{1}, CreatedAt: now, ExpiresAt: &exp}
	require.NoError(t, st.CreateSecretToken(ctx, first, time.Time{}))

	second := &account.SecretToken{AccountID: acc.ID, Purpose: account.PurposePasswordReset, Hash: [32]byte{2}, CreatedAt: now.Add(time.Minute), ExpiresAt: &exp}
	require.NoError(t, st.CreateSecretToken(ctx, second, time.Time{}))

	last, err := st.LastSecretTokenIssuedAt(ctx, acc.ID, account.PurposePasswordReset)
	require.NoError(t, err)
	require.WithinDuration(t, second.CreatedAt, last, time.Millisecond)

	got, err := st.SecretTokenByHash(ctx, account.PurposePasswordReset, [32]byte{1})
	require.NoError(t, err)
	require.True(t, got.Used(), "issuing a new token supersedes the old one")

	got, err = st.SecretTokenByHash(ctx, account.PurposePasswordReset, [32]byte{2})
	require.NoError(t, err)
	require.False(t, got.Used())
	require.Equal(t, [32]byte{2}, got.Hash)

	_, err = st.SecretTokenByHash(ctx, account.PurposeEmailVerification, [32]byte{2})
	require.ErrorIs(t, err, account.ErrNotFound)

	require.NoError(t, st.ConsumeSecretToken(ctx, second.ID, now))
	require.ErrorIs(t, st.ConsumeSecretToken(ctx, second.ID, now), account.ErrAlreadyUsed)
	require.ErrorIs(t, st.ConsumeSecretToken(ctx, "missing", now), account.ErrNotFound)
}

func TestIntegration_SecretTokenCooldownUnderConcurrency(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	acc := seedAccount(t, st, "erin")
	now := time.Now().UTC().Truncate(time.Microsecond)
	notBefore := now.Add(-10 * time.Minute)

	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok := &account.SecretToken{AccountID: acc.ID, Purpose: account.PurposePasswordReset, Hash: [32]byte{byte(i + 1)}, CreatedAt: now}
			errs[i] = st.CreateSecretToken(ctx, tok, notBefore)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, account.ErrCooldown)
	}
	require.Equal(t, 1, created)

	err := st.CreateSecretToken(ctx, &account.SecretToken{AccountID: "missing", Purpose: account.PurposePasswordReset, Hash: [32]byte{99}, CreatedAt: now}, notBefore)
	require.ErrorIs(t, err, account.ErrNotFound)
}
