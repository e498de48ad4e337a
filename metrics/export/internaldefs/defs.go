package internaldefs

import "github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"

type CounterDef struct {
	ID   metrics.ID
	Name string
	Help string
}

type HistogramDef struct {
	ID   metrics.HistogramID
	Name string
	Help string
}

const AuditDroppedName = "forumauth_audit_dropped_total"

const AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: metrics.LoginSuccess, Name: "forumauth_login_success_total", Help: "Successful logins."},
	{ID: metrics.LoginFailure, Name: "forumauth_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: metrics.LoginRateLimited, Name: "forumauth_login_rate_limited_total", Help: "Logins refused by the failure throttle."},
	{ID: metrics.LoginBanned, Name: "forumauth_login_banned_total", Help: "Logins refused by an active ban."},
	{ID: metrics.LoginUnverified, Name: "forumauth_login_unverified_total", Help: "Logins refused for an unverified email."},
	{ID: metrics.RefreshSuccess, Name: "forumauth_refresh_success_total", Help: "Successful token refreshes."},
	{ID: metrics.RefreshSuperseded, Name: "forumauth_refresh_superseded_total", Help: "Refreshes presenting a superseded version."},
	{ID: metrics.RefreshFailure, Name: "forumauth_refresh_failure_total", Help: "Refreshes failing for any other reason."},
	{ID: metrics.Logout, Name: "forumauth_logout_total", Help: "Logouts and forced session revocations."},
	{ID: metrics.ValidateAllowed, Name: "forumauth_validate_allowed_total", Help: "Access tokens accepted."},
	{ID: metrics.ValidateSuperseded, Name: "forumauth_validate_superseded_total", Help: "Access tokens rejected as superseded."},
	{ID: metrics.ValidateUnusable, Name: "forumauth_validate_unusable_total", Help: "Access tokens whose account is unusable."},
	{ID: metrics.ValidateRejected, Name: "forumauth_validate_rejected_total", Help: "Access tokens rejected as invalid or unversioned."},
	{ID: metrics.CacheHit, Name: "forumauth_revocation_cache_hit_total", Help: "Revocation cache hits."},
	{ID: metrics.CacheMiss, Name: "forumauth_revocation_cache_miss_total", Help: "Revocation cache misses."},
	{ID: metrics.SecretTokenIssued, Name: "forumauth_secret_token_issued_total", Help: "Secret tokens issued."},
	{ID: metrics.SecretTokenRateLimited, Name: "forumauth_secret_token_rate_limited_total", Help: "Secret token requests refused by cooldown."},
	{ID: metrics.SecretTokenRedeemed, Name: "forumauth_secret_token_redeemed_total", Help: "Secret tokens redeemed."},
	{ID: metrics.SecretTokenRejected, Name: "forumauth_secret_token_rejected_total", Help: "Secret token redemptions rejected."},
	{ID: metrics.BanCreated, Name: "forumauth_ban_created_total", Help: "Bans created."},
	{ID: metrics.BanLifted, Name: "forumauth_ban_lifted_total", Help: "Unban operations."},
	{ID: metrics.MuteCreated, Name: "forumauth_mute_created_total", Help: "Mutes created."},
	{ID: metrics.MuteLifted, Name: "forumauth_mute_lifted_total", Help: "Unmute operations."},
	{ID: metrics.PasswordRehashed, Name: "forumauth_password_rehashed_total", Help: "Password hashes upgraded on login."},
}

var HistogramDefs = []HistogramDef{
	{ID: metrics.LoginLatency, Name: "forumauth_login_latency_seconds", Help: "Login latency."},
	{ID: metrics.ValidateLatency, Name: "forumauth_validate_latency_seconds", Help: "Access token validation latency."},
}

// BoundSuffix names each bucket for exporters without native histograms.
var BoundSuffix = [metrics.BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}
