package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/internal/audit"
)

type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
)

func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

func NewSlogSink(logger *slog.Logger) *SlogSink { return audit.NewSlogSink(logger) }

// Audit event types.
const (
	AuditLoginSuccess           = "login_success"
	AuditLoginFailure           = "login_failure"
	AuditRefreshSuccess         = "refresh_success"
	AuditRefreshSuperseded      = "refresh_superseded"
	AuditLogout                 = "logout"
	AuditSessionSuperseded      = "session_superseded"
	AuditAccountUnusable        = "account_unusable"
	AuditBanCreated             = "ban_created"
	AuditBanLifted              = "ban_lifted"
	AuditMuteCreated            = "mute_created"
	AuditMuteLifted             = "mute_lifted"
	AuditSecretTokenIssued      = "secret_token_issued"
	AuditSecretTokenRateLimited = "secret_token_rate_limited"
	AuditSecretTokenRedeemed    = "secret_token_redeemed"
	AuditSecretTokenRejected    = "secret_token_rejected"
)

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent, err error) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = e.now().UTC()
	event.IP = clientIPFromContext(ctx)
	event.UserAgent = userAgentFromContext(ctx)
	event.Success = err == nil
	if err != nil {
		event.Error = auditErrorCode(err)
	}
	e.audit.Emit(ctx, event)
}

// auditErrorCode maps err to a stable code. The finer causes are checked
// before their kind sentinels.
func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailUnverified):
		return "email_unverified"
	case errors.Is(err, ErrSecretTokenExpired):
		return "secret_token_expired"
	case errors.Is(err, ErrSecretTokenInvalid):
		return "secret_token_invalid"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, ErrStoreUnavailable):
		return "backend_unavailable"
	}
	if r, ok := AsRejection(err); ok {
		return r.Kind.String()
	}
	return "internal_error"
}

func metaReason(reason string) map[string]string {
	if reason == "" {
		return nil
	}
	return map[string]string{"reason": reason}
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
