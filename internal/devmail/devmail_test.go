package devmail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
)

func TestMailboxKeepsNewestPerKind(t *testing.T) {
	box := New(nil)
	acc := &auth.Account{ID: "acc-1", Email: "alice@forum.test"}
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, box.SendEmailVerification(ctx, acc, "verify-1"))
	require.NoError(t, box.SendPasswordReset(ctx, acc, "reset-1", &exp))
	require.NoError(t, box.SendPasswordReset(ctx, acc, "reset-2", &exp))

	msg, ok := box.Latest("ALICE@forum.test", KindPasswordReset)
	require.True(t, ok)
	require.Equal(t, "reset-2", msg.Token)
	require.Equal(t, "acc-1", msg.AccountID)

	all := box.Messages("alice@forum.test")
	require.Len(t, all, 2)
	require.Equal(t, KindEmailVerification, all[0].Kind)
	require.Equal(t, KindPasswordReset, all[1].Kind)

	_, ok = box.Latest("bob@forum.test", KindPasswordReset)
	require.False(t, ok)
	require.Empty(t, box.Messages("bob@forum.test"))
}

func TestMailboxForwardsToNext(t *testing.T) {
	var forwarded []string
	next := auth.NotifierFuncs{
		EmailVerification: func(_ context.Context, acc *auth.Account, _ string) error {
			forwarded = append(forwarded, acc.ID)
			return errors.New("smtp down")
		},
	}
	box := New(next)

	err := box.SendEmailVerification(context.Background(), &auth.Account{ID: "acc-2", Email: "b@forum.test"}, "tok")
	require.EqualError(t, err, "smtp down")
	require.Equal(t, []string{"acc-2"}, forwarded)

	msg, ok := box.Latest("b@forum.test", KindEmailVerification)
	require.True(t, ok, "the message is kept even when forwarding fails")
	require.Equal(t, "tok", msg.Token)
}
