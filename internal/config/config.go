// Package config loads the forumauth service configuration from YAML and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/jwt"
)

// Config is the root service configuration. Sources, highest priority first:
//  1. the explicit path passed to Load/MustLoad;
//  2. the CONFIG_PATH environment variable;
//  3. ./local.yaml in the working directory;
//  4. environment variables alone.
//
// A .env file in the working directory, if present, is loaded into the
// environment before any of these are read.
type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	HTTP        HTTPConfig        `yaml:"http"`
	DB          DBConfig          `yaml:"db"`
	Redis       RedisConfig       `yaml:"redis"`
	JWT         JWTConfig         `yaml:"jwt"`
	Session     SessionConfig     `yaml:"session"`
	SecretToken SecretTokenConfig `yaml:"secret_token"`
}

// HTTPConfig holds the gin server settings.
type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

type DBConfig struct {
	URL     string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
	Migrate bool   `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
}

// RedisConfig is optional. With an empty Addr the service keeps its
// revocation cache in process and login throttling is unavailable.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// JWTConfig names the signing keys. For ed25519 PrivateKeyFile holds a PEM
// private key; for hs256 Secret holds the shared secret.
type JWTConfig struct {
	SigningMethod  string        `yaml:"signing_method" env:"JWT_SIGNING_METHOD" env-default:"ed25519"`
	PrivateKeyFile string        `yaml:"private_key_file" env:"JWT_PRIVATE_KEY_FILE"`
	PublicKeyFile  string        `yaml:"public_key_file" env:"JWT_PUBLIC_KEY_FILE"`
	Secret         string        `yaml:"secret" env:"JWT_SECRET"`
	Issuer         string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"forumauth"`
	Audience       string        `yaml:"audience" env:"JWT_AUDIENCE"`
	AccessTTL      time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTTL     time.Duration `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL" env-default:"168h"`
}

type SessionConfig struct {
	CacheTTL         time.Duration `yaml:"cache_ttl" env:"SESSION_CACHE_TTL" env-default:"5m"`
	LoginThrottle    bool          `yaml:"login_throttle" env:"LOGIN_THROTTLE" env-default:"false"`
	MaxLoginFailures int           `yaml:"max_login_failures" env:"MAX_LOGIN_FAILURES" env-default:"10"`
	FailureWindow    time.Duration `yaml:"failure_window" env:"LOGIN_FAILURE_WINDOW" env-default:"15m"`
	Audit            bool          `yaml:"audit" env:"AUDIT_ENABLED" env-default:"true"`
	AuditFlush       time.Duration `yaml:"audit_flush_timeout" env:"AUDIT_FLUSH_TIMEOUT" env-default:"5s"`
}

type SecretTokenConfig struct {
	PasswordResetTTL          time.Duration `yaml:"password_reset_ttl" env:"PASSWORD_RESET_TTL" env-default:"1h"`
	PasswordResetCooldown     time.Duration `yaml:"password_reset_cooldown" env:"PASSWORD_RESET_COOLDOWN" env-default:"10m"`
	EmailVerificationTTL      time.Duration `yaml:"email_verification_ttl" env:"EMAIL_VERIFICATION_TTL" env-default:"0s"`
	EmailVerificationCooldown time.Duration `yaml:"email_verification_cooldown" env:"EMAIL_VERIFICATION_COOLDOWN" env-default:"2m"`
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration using the priority documented on Config.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("local.yaml"); err == nil {
			path = "local.yaml"
		}
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide -config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DB.URL == "" {
		return errors.New("db.url is required")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodEd25519:
		if c.JWT.PrivateKeyFile == "" {
			return errors.New("jwt.private_key_file is required for ed25519")
		}
	case jwt.MethodHS256:
		if c.JWT.Secret == "" {
			return errors.New("jwt.secret is required for hs256")
		}
	default:
		return fmt.Errorf("jwt.signing_method %q is not supported", c.JWT.SigningMethod)
	}
	if c.Session.LoginThrottle && c.Redis.Addr == "" {
		return errors.New("session.login_throttle requires redis.addr")
	}
	return nil
}

// AuthConfig builds the engine configuration, reading key files from disk.
func (c *Config) AuthConfig() (auth.Config, error) {
	cfg := auth.DefaultConfig()

	cfg.JWT.SigningMethod = jwt.SigningMethod(c.JWT.SigningMethod)
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.Audience = c.JWT.Audience
	cfg.JWT.AccessTTL = c.JWT.AccessTTL
	cfg.JWT.RefreshTTL = c.JWT.RefreshTTL

	switch cfg.JWT.SigningMethod {
	case jwt.MethodHS256:
		cfg.JWT.PrivateKey = []byte(c.JWT.Secret)
	default:
		key, err := os.ReadFile(c.JWT.PrivateKeyFile)
		if err != nil {
			return auth.Config{}, fmt.Errorf("read jwt private key: %w", err)
		}
		cfg.JWT.PrivateKey = key
		if c.JWT.PublicKeyFile != "" {
			pub, err := os.ReadFile(c.JWT.PublicKeyFile)
			if err != nil {
				return auth.Config{}, fmt.Errorf("read jwt public key: %w", err)
			}
			cfg.JWT.PublicKey = pub
		}
	}

	cfg.Cache.TTL = c.Session.CacheTTL
	cfg.LoginThrottle.Enabled = c.Session.LoginThrottle
	cfg.LoginThrottle.MaxFailures = c.Session.MaxLoginFailures
	cfg.LoginThrottle.Window = c.Session.FailureWindow
	cfg.Audit.Enabled = c.Session.Audit
	cfg.Audit.FlushTimeout = c.Session.AuditFlush

	cfg.SecretToken.PasswordResetTTL = c.SecretToken.PasswordResetTTL
	cfg.SecretToken.PasswordResetCooldown = c.SecretToken.PasswordResetCooldown
	cfg.SecretToken.EmailVerificationTTL = c.SecretToken.EmailVerificationTTL
	cfg.SecretToken.EmailVerificationCooldown = c.SecretToken.EmailVerificationCooldown

	if err := cfg.Validate(); err != nil {
		return auth.Config{}, err
	}
	return cfg, nil
}
