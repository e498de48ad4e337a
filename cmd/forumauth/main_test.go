package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/devmail"
)

func TestLogNotifierNeverWritesTokens(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	acc := &auth.Account{ID: "acc-1", Email: "alice@forum.test"}
	exp := time.Now().Add(time.Hour)
	ctx := context.Background()

	box := devmail.New(logNotifier(log))
	require.NoError(t, box.SendPasswordReset(ctx, acc, "reset-secret-value", &exp))
	require.NoError(t, box.SendEmailVerification(ctx, acc, "verify-secret-value"))

	out := buf.String()
	require.Contains(t, out, "password_reset_issued")
	require.Contains(t, out, "email_verification_issued")
	require.NotContains(t, out, "reset-secret-value")
	require.NotContains(t, out, "verify-secret-value")

	msg, ok := box.Latest(acc.Email, devmail.KindPasswordReset)
	require.True(t, ok)
	require.Equal(t, "reset-secret-value", msg.Token)
}
