package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/config"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/devmail"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/server"
	promexport "github.com/MustafaxCmrt/Social-Network-sub000/metrics/export/prometheus"
	"github.com/MustafaxCmrt/Social-Network-sub000/storage/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting forumauth", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("forumauth_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	authCfg, err := cfg.AuthConfig()
	if err != nil {
		return err
	}

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := postgres.New(dbCtx, cfg.DB.URL)
	dbCancel()
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("postgres_connected")

	if cfg.DB.Migrate {
		if err := store.Migrate(rootCtx); err != nil {
			return err
		}
		log.Info("migrations_applied")
	}

	var notifier auth.Notifier = logNotifier(log)
	var mailbox *devmail.Mailbox
	if cfg.Env == envLocal {
		mailbox = devmail.New(notifier)
		notifier = mailbox
		log.Info("dev_mailbox_enabled", slog.String("path", "/dev/mailbox"))
	}

	builder := auth.New().
		WithConfig(authCfg).
		WithStore(store).
		WithLogger(log).
		WithNotifier(notifier)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(rootCtx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return err
		}
		builder = builder.WithRedis(rdb)
		log.Info("redis_connected", slog.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("redis_not_configured, revocation cache is process-local")
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(engine, store, server.Options{
		Logger:  log,
		Metrics: promexport.NewCollector(engine).Handler(),
		Mailbox: mailbox,
	})
	httpServer := srv.HTTPServer(cfg.HTTP.Addr(), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		return httpServer.Close()
	}
	log.Info("http_stopped")
	return nil
}

// logNotifier stands in for a mail transport. It records that a token went
// out, never the token itself.
func logNotifier(log *slog.Logger) auth.Notifier {
	return auth.NotifierFuncs{
		PasswordReset: func(ctx context.Context, acc *auth.Account, _ string, expiresAt *time.Time) error {
			log.InfoContext(ctx, "password_reset_issued",
				slog.String("account_id", acc.ID),
				slog.Any("expires_at", expiresAt),
			)
			return nil
		},
		EmailVerification: func(ctx context.Context, acc *auth.Account, _ string) error {
			log.InfoContext(ctx, "email_verification_issued",
				slog.String("account_id", acc.ID),
			)
			return nil
		},
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
