package auth

import (
	"context"
	"time"
)

// Notifier delivers one-time tokens out of band, typically by email.
// Delivery errors are logged and never undo the issued token.
type Notifier interface {
	SendPasswordReset(ctx context.Context, acc *Account, token string, expiresAt *time.Time) error
	SendEmailVerification(ctx context.Context, acc *Account, token string) error
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are no-ops.
type NotifierFuncs struct {
	PasswordReset     func(ctx context.Context, acc *Account, token string, expiresAt *time.Time) error
	EmailVerification func(ctx context.Context, acc *Account, token string) error
}

func (n NotifierFuncs) SendPasswordReset(ctx context.Context, acc *Account, token string, expiresAt *time.Time) error {
	if n.PasswordReset == nil {
		return nil
	}
	return n.PasswordReset(ctx, acc, token, expiresAt)
}

func (n NotifierFuncs) SendEmailVerification(ctx context.Context, acc *Account, token string) error {
	if n.EmailVerification == nil {
		return nil
	}
	return n.EmailVerification(ctx, acc, token)
}
