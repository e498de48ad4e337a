// Package server exposes the auth engine over HTTP with gin.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/devmail"
	"github.com/MustafaxCmrt/Social-Network-sub000/middleware"
)

// RoleAdmin is the role allowed on /admin routes.
const RoleAdmin = "admin"

// Accounts is the slice of the credential store the HTTP layer touches
// directly: registration and profile reads.
type Accounts interface {
	CreateAccount(ctx context.Context, acc *account.Account) error
	AccountByID(ctx context.Context, id string) (*account.Account, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires optional collaborators.
type Options struct {
	Logger *slog.Logger
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// DefaultRole is assigned at registration. Empty means "member".
	DefaultRole string
	// Mailbox serves GET /dev/mailbox to loopback clients when set.
	Mailbox *devmail.Mailbox
}

// Server holds the handlers.
type Server struct {
	engine   *auth.Engine
	accounts Accounts
	logger   *slog.Logger
	metrics  http.Handler
	role     string
	mailbox  *devmail.Mailbox
}

func New(engine *auth.Engine, accounts Accounts, opts Options) *Server {
	s := &Server{
		engine:   engine,
		accounts: accounts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		role:     opts.DefaultRole,
		mailbox:  opts.Mailbox,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.role == "" {
		s.role = "member"
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), requestContext())
	public := middleware.DefaultPublicPaths()
	if s.mailbox != nil {
		public = append(public, devMailboxPath)
	}
	r.Use(middleware.GinGuard(s.engine, middleware.Options{
		PublicPaths: public,
		Logger:      s.logger,
	}))

	r.GET("/health", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	if s.mailbox != nil {
		r.GET(devMailboxPath, s.devMailbox)
	}

	a := r.Group("/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.POST("/refresh", s.refresh)
	a.POST("/logout", s.logout)
	a.POST("/forgot-password", s.forgotPassword)
	a.POST("/reset-password", s.resetPassword)
	a.POST("/verify-email", s.verifyEmail)
	a.POST("/resend-verification", s.resendVerification)
	a.GET("/me", s.me)

	admin := r.Group("/admin", middleware.GinRequireRole(s.lookupRole, RoleAdmin))
	admin.POST("/accounts/:id/ban", s.ban)
	admin.POST("/accounts/:id/unban", s.unban)
	admin.POST("/accounts/:id/mute", s.mute)
	admin.POST("/accounts/:id/unmute", s.unmute)
	admin.POST("/accounts/:id/revoke-sessions", s.revokeSessions)
	admin.GET("/accounts/:id/status", s.status)

	return r
}

// HTTPServer wraps Router in an *http.Server bound to addr.
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

func (s *Server) lookupRole(ctx context.Context, accountID string) (string, error) {
	acc, err := s.accounts.AccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !acc.Usable() {
		return "", nil
	}
	return acc.Role, nil
}

// requestContext copies the caller's IP and User-Agent into the request
// context for audit events and secret-token records.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = auth.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.DebugContext(c.Request.Context(), "http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	if p, ok := s.accounts.(Pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			s.logger.WarnContext(c.Request.Context(), "health_check_failed", slog.String("err", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError answers with the status middleware.StatusCode picks. Server-side
// failures are logged and never echo their cause.
func (s *Server) writeError(c *gin.Context, err error) {
	status := middleware.StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request.Context(), "request_failed",
			slog.String("path", c.FullPath()),
			slog.String("err", err.Error()),
		)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	body := gin.H{"error": err.Error()}
	if r, ok := auth.AsRejection(err); ok {
		body["code"] = r.Kind.String()
		if r.BanUntil != nil {
			body["banned_until"] = r.BanUntil.UTC()
		}
		if r.RetryAfter > 0 {
			c.Header("Retry-After", retryAfterSeconds(r.RetryAfter))
		}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
