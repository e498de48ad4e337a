package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/devmail"
	promexport "github.com/MustafaxCmrt/Social-Network-sub000/metrics/export/prometheus"
	"github.com/MustafaxCmrt/Social-Network-sub000/storage/memory"
)

const testPassword = "correct horse battery"

type testServer struct {
	handler http.Handler
	engine  *auth.Engine
	store   *memory.Store
	mailbox *devmail.Mailbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cfg := auth.DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	box := devmail.New(nil)

	engine, err := auth.New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(box).
		WithLogger(logger).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	srv := New(engine, store, Options{
		Logger:  logger,
		Metrics: promexport.NewCollector(engine).Handler(),
		Mailbox: box,
	})
	return &testServer{handler: srv.Router(), engine: engine, store: store, mailbox: box}
}

func (ts *testServer) token(t *testing.T, email string, kind devmail.Kind) string {
	t.Helper()
	msg, ok := ts.mailbox.Latest(email, kind)
	require.True(t, ok, "no %s message for %s", kind, email)
	return msg.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, identifier string) auth.TokenPair {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"identifier": identifier, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair
}

func (ts *testServer) seedAdmin(t *testing.T) {
	t.Helper()
	hash, err := ts.engine.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, ts.store.CreateAccount(context.Background(), &account.Account{
		Username:      "mod",
		Email:         "mod@forum.test",
		Role:          RoleAdmin,
		PasswordHash:  hash,
		Active:        true,
		EmailVerified: true,
	}))
}

func (ts *testServer) registerVerified(t *testing.T, username string) string {
	t.Helper()
	email := username + "@forum.test"
	w := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": username, "email": email, "password": testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = ts.do(t, http.MethodPost, "/auth/verify-email", "", gin.H{"token": ts.token(t, email, devmail.KindEmailVerification)})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	return created.ID
}

func TestRegisterVerifyLoginRefreshLogout(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "alice", "email": "Alice@Forum.test", "password": testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "alice", "email": "other@forum.test", "password": testPassword})
	require.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "bob", "email": "bob@forum.test", "password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"identifier": "alice", "password": testPassword})
	require.Equal(t, http.StatusUnauthorized, w.Code, "unverified email must not log in")

	token := ts.token(t, "alice@forum.test", devmail.KindEmailVerification)
	require.NotEmpty(t, token)
	w = ts.do(t, http.MethodPost, "/auth/verify-email", "", gin.H{"token": token})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/auth/verify-email", "", gin.H{"token": token})
	require.Equal(t, http.StatusBadRequest, w.Code, "verification tokens are single use")

	first := ts.login(t, "alice@forum.test")

	w = ts.do(t, http.MethodGet, "/auth/me", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me accountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "alice", me.Username)
	require.True(t, me.EmailVerified)

	w = ts.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	w = ts.do(t, http.MethodGet, "/auth/me", first.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code, "access token from before the refresh is superseded")

	w = ts.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens are single use")

	w = ts.do(t, http.MethodPost, "/auth/logout", second.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/auth/me", second.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "carol")
	pair := ts.login(t, "carol")

	w := ts.do(t, http.MethodPost, "/auth/forgot-password", "", gin.H{"email": "nobody@forum.test"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/forgot-password", "", gin.H{"email": "carol@forum.test"})
	require.Equal(t, http.StatusAccepted, w.Code)
	token := ts.token(t, "carol@forum.test", devmail.KindPasswordReset)
	require.NotEmpty(t, token)

	w = ts.do(t, http.MethodPost, "/auth/forgot-password", "", gin.H{"email": "carol@forum.test"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	w = ts.do(t, http.MethodPost, "/auth/reset-password", "", gin.H{"token": "bogus", "password": "another long password"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/reset-password", "", gin.H{"token": token, "password": "another long password"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code, "password reset revokes sessions")

	w = ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"identifier": "carol", "password": "another long password"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSanctions(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	userID := ts.registerVerified(t, "dave")

	admin := ts.login(t, "mod")
	user := ts.login(t, "dave")

	w := ts.do(t, http.MethodPost, "/admin/accounts/"+userID+"/ban", user.AccessToken, gin.H{"reason": "self"})
	require.Equal(t, http.StatusForbidden, w.Code, "members cannot use admin routes")

	w = ts.do(t, http.MethodPost, "/admin/accounts/"+userID+"/mute", admin.AccessToken,
		gin.H{"reason": "flooding", "expires_at": time.Now().Add(time.Hour)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/auth/me", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, "a mute never blocks authentication")
	require.Contains(t, w.Body.String(), "muted_until")

	w = ts.do(t, http.MethodPost, "/admin/accounts/"+userID+"/ban", admin.AccessToken, gin.H{"reason": "spam"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/admin/accounts/"+userID+"/ban", admin.AccessToken, gin.H{"reason": "again"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/auth/me", user.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code, "a ban supersedes outstanding tokens")

	w = ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"identifier": "dave", "password": testPassword})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "account permanently banned: spam")

	w = ts.do(t, http.MethodGet, "/admin/accounts/"+userID+"/status", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.False(t, st.Allowed)
	require.True(t, st.Permanent)
	require.NotNil(t, st.MutedUntil)

	w = ts.do(t, http.MethodPost, "/admin/accounts/"+userID+"/unban", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"lifted":true}`, w.Body.String())

	user = ts.login(t, "dave")

	w = ts.do(t, http.MethodPost, "/admin/accounts/"+userID+"/revoke-sessions", admin.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, "/auth/me", user.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/admin/accounts/missing/ban", admin.AccessToken, gin.H{"reason": "x"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_ = ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"identifier": "ghost", "password": testPassword})

	w = ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "forumauth_"), w.Body.String())

	w = ts.do(t, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"identifier": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevMailboxIsLoopbackOnly(t *testing.T) {
	ts := newTestServer(t)
	ts.registerVerified(t, "dora")

	req := httptest.NewRequest(http.MethodGet, "/dev/mailbox?email=dora@forum.test", nil)
	req.RemoteAddr = "127.0.0.1:51000"
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Messages []devmail.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	require.Equal(t, devmail.KindEmailVerification, body.Messages[0].Kind)
	require.NotEmpty(t, body.Messages[0].Token)

	req = httptest.NewRequest(http.MethodGet, "/dev/mailbox?email=dora@forum.test", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
