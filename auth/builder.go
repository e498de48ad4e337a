package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/rate"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config    Config
	store     account.Store
	redis     redis.UniversalClient
	cache     revocation.Cache
	hasher    password.Hasher
	logger    *slog.Logger
	auditSink audit.Sink
	notifier  Notifier
	clock     func() time.Time

	built bool
}

// New starts a Builder from DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store account.Store) *Builder {
	b.store = store
	return b
}

// WithRedis backs the revocation cache and the login throttle with Redis.
// Without it the cache is process-local and the throttle cannot be enabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCache overrides the revocation cache chosen by Build.
func (b *Builder) WithCache(cache revocation.Cache) *Builder {
	b.cache = cache
	return b
}

// WithHasher overrides the hasher derived from Config.Password.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. With auditing enabled and no
// sink, events go to the engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithClock replaces time.Now for tokens, sanctions and secret tokens.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LoginThrottle.Enabled && b.redis == nil {
		return nil, errors.New("LoginThrottle requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "auth"))

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: cfg.JWT.SigningMethod,
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		Now:           b.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	hasher := b.hasher
	if hasher == nil {
		if hasher, err = password.New(cfg.passwordOptions()); err != nil {
			return nil, err
		}
	}

	// Hash a throwaway secret with the live parameters so a login for an
	// unknown account costs the same as a wrong password.
	dummySecret, _, err := internal.NewSecretValue()
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(dummySecret)
	if err != nil {
		return nil, fmt.Errorf("compute dummy hash: %w", err)
	}

	cache := b.cache
	if cache == nil {
		if b.redis != nil {
			cache = revocation.NewRedis(b.redis, cfg.Cache.RedisPrefix, cfg.Cache.TTL)
		} else {
			var opts []revocation.MemoryOption
			if b.clock != nil {
				opts = append(opts, revocation.WithClock(b.clock))
			}
			cache = revocation.NewMemory(cfg.Cache.TTL, opts...)
		}
	}

	var throttle *rate.Limiter
	if cfg.LoginThrottle.Enabled {
		throttle = rate.New(b.redis, rate.Config{
			MaxFailures: cfg.LoginThrottle.MaxFailures,
			Window:      cfg.LoginThrottle.Window,
			KeyPrefix:   cfg.LoginThrottle.RedisPrefix,
		})
	}

	sink := b.auditSink
	if sink == nil {
		sink = audit.NewSlogSink(logger)
	}
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:      cfg.Audit.Enabled,
		BufferSize:   cfg.Audit.BufferSize,
		DropIfFull:   cfg.Audit.DropIfFull,
		FlushTimeout: cfg.Audit.FlushTimeout,
	}, sink)

	b.built = true

	return &Engine{
		config:    cfg,
		store:     b.store,
		cache:     cache,
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummyHash,
		throttle:  throttle,
		notifier:  b.notifier,
		audit:     dispatcher,
		metrics: metrics.New(metrics.Config{
			Enabled:                 cfg.Metrics.Enabled,
			EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
		}),
		logger: logger,
		clock:  b.clock,
	}, nil
}
