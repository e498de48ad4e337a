package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
)

// Validator is the part of *auth.Engine the guard needs.
type Validator interface {
	ValidateAccess(ctx context.Context, token string) (*auth.AuthResult, error)
}

// Options configures Guard. A public path either matches exactly or, when it
// ends in "/*", matches the prefix before the star.
type Options struct {
	PublicPaths []string
	Logger      *slog.Logger
}

// DefaultPublicPaths lists the routes that never require a session.
func DefaultPublicPaths() []string {
	return []string{
		"/auth/login",
		"/auth/register",
		"/auth/refresh",
		"/auth/forgot-password",
		"/auth/reset-password",
		"/auth/verify-email",
		"/auth/resend-verification",
		"/health",
		"/metrics",
	}
}

type authResultContextKey struct{}

// WithAuthResult stores res in ctx.
func WithAuthResult(ctx context.Context, res *auth.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

func AuthResultFromContext(ctx context.Context) (*auth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*auth.AuthResult)
	return res, ok && res != nil
}

type guard struct {
	validator Validator
	exact     map[string]struct{}
	prefixes  []string
	logger    *slog.Logger
}

func newGuard(v Validator, opts Options) *guard {
	g := &guard{
		validator: v,
		exact:     make(map[string]struct{}, len(opts.PublicPaths)),
		logger:    opts.Logger,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	for _, p := range opts.PublicPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			g.prefixes = append(g.prefixes, prefix+"/")
			continue
		}
		g.exact[p] = struct{}{}
	}
	return g
}

func (g *guard) public(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// check returns the validated result, or the status and message to answer
// with.
func (g *guard) check(r *http.Request) (*auth.AuthResult, int, string) {
	if g.validator == nil {
		return nil, http.StatusUnauthorized, "unauthorized"
	}
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, http.StatusUnauthorized, "unauthorized"
	}

	res, err := g.validator.ValidateAccess(r.Context(), token)
	if err != nil {
		status := StatusCode(err)
		if status >= http.StatusInternalServerError {
			g.logger.ErrorContext(r.Context(), "access validation failed", "path", r.URL.Path, "error", err)
			return nil, status, "service unavailable"
		}
		if errors.Is(err, auth.ErrNotVersioned) {
			return nil, http.StatusUnauthorized, "unauthorized"
		}
		return nil, status, err.Error()
	}
	return res, 0, ""
}

// Guard rejects requests to non-public paths that lack a current session.
func Guard(v Validator, opts Options) func(http.Handler) http.Handler {
	g := newGuard(v, opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			res, status, msg := g.check(r)
			if res == nil {
				WriteError(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// WriteError writes {"error": msg} with status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
