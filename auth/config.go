package auth

import (
	"errors"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
	"github.com/MustafaxCmrt/Social-Network-sub000/password"
	"github.com/MustafaxCmrt/Social-Network-sub000/revocation"
)

// Config is the full engine configuration. Start from DefaultConfig.
type Config struct {
	JWT           JWTConfig
	Cache         CacheConfig
	Password      PasswordConfig
	SecretToken   SecretTokenConfig
	LoginThrottle LoginThrottleConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod jwt.SigningMethod // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

// CacheConfig tunes the revocation cache. RedisPrefix applies only when the
// engine is built with a Redis client.
type CacheConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

type PasswordConfig struct {
	Algorithm      string // "argon2id" (default) or "bcrypt"
	Memory         uint32 // KiB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	BcryptCost     int
	UpgradeOnLogin bool
}

// SecretTokenConfig holds lifetime and reissue cooldown per purpose. A zero
// TTL never expires; the token lives until superseded.
type SecretTokenConfig struct {
	PasswordResetTTL          time.Duration
	PasswordResetCooldown     time.Duration
	EmailVerificationTTL      time.Duration
	EmailVerificationCooldown time.Duration
}

// LoginThrottleConfig enables the Redis failed-login counter.
type LoginThrottleConfig struct {
	Enabled     bool
	MaxFailures int
	Window      time.Duration
	RedisPrefix string
}

// AuditConfig sizes the audit queue. FlushTimeout bounds delivery of queued
// events on Close; zero waits for all of them.
type AuditConfig struct {
	Enabled      bool
	BufferSize   int
	DropIfFull   bool
	FlushTimeout time.Duration
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults. Signing keys are left empty.
func DefaultConfig() Config {
	pw := password.DefaultOptions()
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: jwt.MethodEd25519,
			Leeway:        30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:         revocation.DefaultTTL,
			RedisPrefix: revocation.DefaultKeyPrefix,
		},
		Password: PasswordConfig{
			Algorithm:      password.AlgorithmArgon2id,
			Memory:         pw.Argon2.Memory,
			Time:           pw.Argon2.Time,
			Parallelism:    pw.Argon2.Parallelism,
			SaltLength:     pw.Argon2.SaltLength,
			KeyLength:      pw.Argon2.KeyLength,
			BcryptCost:     pw.BcryptCost,
			UpgradeOnLogin: true,
		},
		SecretToken: SecretTokenConfig{
			PasswordResetTTL:          time.Hour,
			PasswordResetCooldown:     10 * time.Minute,
			EmailVerificationTTL:      0,
			EmailVerificationCooldown: 2 * time.Minute,
		},
		LoginThrottle: LoginThrottleConfig{
			Enabled:     false,
			MaxFailures: 10,
			Window:      15 * time.Minute,
			RedisPrefix: "lf:",
		},
		Audit: AuditConfig{
			Enabled:      false,
			BufferSize:   1024,
			DropIfFull:   true,
			FlushTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate reports the first invalid setting. Key material is checked by
// jwt.NewManager at Build time.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.SigningMethod != jwt.MethodEd25519 && c.JWT.SigningMethod != jwt.MethodHS256 {
		return errors.New("unsupported JWT signing method")
	}
	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT PrivateKey is required")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	if c.Cache.TTL <= 0 {
		return errors.New("Cache TTL must be > 0")
	}

	if _, err := password.New(c.passwordOptions()); err != nil {
		return err
	}

	if c.SecretToken.PasswordResetTTL <= 0 {
		return errors.New("SecretToken PasswordResetTTL must be > 0")
	}
	if c.SecretToken.EmailVerificationTTL < 0 {
		return errors.New("SecretToken EmailVerificationTTL must be >= 0")
	}
	if c.SecretToken.PasswordResetCooldown < 0 || c.SecretToken.EmailVerificationCooldown < 0 {
		return errors.New("SecretToken cooldowns must be >= 0")
	}

	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.MaxFailures <= 0 {
			return errors.New("LoginThrottle MaxFailures must be > 0")
		}
		if c.LoginThrottle.Window <= 0 {
			return errors.New("LoginThrottle Window must be > 0")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Audit.FlushTimeout < 0 {
		return errors.New("Audit FlushTimeout must be >= 0")
	}

	return nil
}

func (c *Config) passwordOptions() password.Options {
	return password.Options{
		Algorithm: c.Password.Algorithm,
		Argon2: password.Argon2Config{
			Memory:      c.Password.Memory,
			Time:        c.Password.Time,
			Parallelism: c.Password.Parallelism,
			SaltLength:  c.Password.SaltLength,
			KeyLength:   c.Password.KeyLength,
		},
		BcryptCost: c.Password.BcryptCost,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
