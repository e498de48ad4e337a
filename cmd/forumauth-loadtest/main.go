package main

import (
	"context"
	"crypto/ed25519"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/storage/memory"
)

const loadPassword = "load-test-password"

// accountState holds the newest pair of one account. Refreshes of the same
// account are serialized so every presented refresh token is current.
type accountState struct {
	mu   sync.Mutex
	pair auth.TokenPair
}

func main() {
	var (
		accounts    = flag.Int("accounts", 2000, "number of accounts to seed and log in")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (validate + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	engine, store, err := buildEngine(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states, err := seed(ctx, engine, store, *accounts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	validateStats := runPhase(states, *ops, *concurrency, func(s *accountState) error {
		s.mu.Lock()
		token := s.pair.AccessToken
		s.mu.Unlock()
		_, err := engine.ValidateAccess(ctx, token)
		return err
	})
	refreshStats := runPhase(states, *ops, *concurrency, func(s *accountState) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		pair, err := engine.Refresh(ctx, s.pair.RefreshToken)
		if err == nil {
			s.pair = pair
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("cache: hits=%d misses=%d\n",
		snap.Counters[metrics.CacheHit], snap.Counters[metrics.CacheMiss])
}

func buildEngine(client redis.UniversalClient) (*auth.Engine, *memory.Store, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	cfg := auth.DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.Password.Algorithm = password.AlgorithmBcrypt
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Password.UpgradeOnLogin = false

	store := memory.New()
	engine, err := auth.New().
		WithConfig(cfg).
		WithStore(store).
		WithRedis(client).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	return engine, store, err
}

func seed(ctx context.Context, engine *auth.Engine, store *memory.Store, n int) ([]*accountState, error) {
	fmt.Printf("seeding %d accounts...\n", n)
	start := time.Now()

	hash, err := engine.HashPassword(loadPassword)
	if err != nil {
		return nil, err
	}

	states := make([]*accountState, n)
	for i := 0; i < n; i++ {
		acc := &account.Account{
			Username:      fmt.Sprintf("load-%d", i),
			Email:         fmt.Sprintf("load-%d@example.test", i),
			Role:          "member",
			PasswordHash:  hash,
			Active:        true,
			EmailVerified: true,
		}
		if err := store.CreateAccount(ctx, acc); err != nil {
			return nil, err
		}
		pair, err := engine.Login(ctx, acc.Username, loadPassword)
		if err != nil {
			return nil, err
		}
		states[i] = &accountState{pair: pair}
	}

	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return states, nil
}

func runPhase(states []*accountState, ops, concurrency int, op func(*accountState) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := states[r.Intn(len(states))]
				t0 := time.Now()
				err := op(state)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
