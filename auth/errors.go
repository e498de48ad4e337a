package auth

import (
	"errors"
	"time"
)

// RejectKind classifies business rejections.
type RejectKind int

const (
	RejectInvalidCredentials RejectKind = iota + 1
	RejectAccountUnusable
	RejectAccountBanned
	RejectSessionSuperseded
	RejectRateLimited
	RejectTokenInvalidOrExpired
	RejectInvalidToken
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountUnusable       = errors.New("account not usable")
	ErrAccountBanned         = errors.New("account banned")
	ErrSessionSuperseded     = errors.New("session superseded, please re-authenticate")
	ErrRateLimited           = errors.New("rate limited")
	ErrTokenInvalidOrExpired = errors.New("token invalid or expired")
	// ErrInvalidToken covers access and refresh JWTs that fail signature,
	// expiry or type checks. Expired and tampered are not distinguished.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrEmailUnverified    = errors.New("email not verified")
	ErrSecretTokenExpired = errors.New("secret token expired")
	ErrSecretTokenInvalid = errors.New("secret token invalid or already used")

	// ErrNotVersioned is returned by ValidateAccess for a well-formed token
	// without subject or version. Callers treat the request as anonymous.
	ErrNotVersioned = errors.New("token is not versioned")

	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrAccountNotFound    = errors.New("account not found")
	ErrPasswordPolicy     = errors.New("password policy violation")
	ErrUnsupportedPurpose = errors.New("unsupported secret token purpose")
	ErrInvalidSanction    = errors.New("invalid sanction request")
	ErrAlreadySanctioned  = errors.New("account already has an active sanction")
	ErrEngineNotReady     = errors.New("engine not initialized")
)

var kindSentinels = map[RejectKind]error{
	RejectInvalidCredentials:    ErrInvalidCredentials,
	RejectAccountUnusable:       ErrAccountUnusable,
	RejectAccountBanned:         ErrAccountBanned,
	RejectSessionSuperseded:     ErrSessionSuperseded,
	RejectRateLimited:           ErrRateLimited,
	RejectTokenInvalidOrExpired: ErrTokenInvalidOrExpired,
	RejectInvalidToken:          ErrInvalidToken,
}

func (k RejectKind) String() string {
	switch k {
	case RejectInvalidCredentials:
		return "invalid_credentials"
	case RejectAccountUnusable:
		return "account_unusable"
	case RejectAccountBanned:
		return "account_banned"
	case RejectSessionSuperseded:
		return "session_superseded"
	case RejectRateLimited:
		return "rate_limited"
	case RejectTokenInvalidOrExpired:
		return "token_invalid_or_expired"
	case RejectInvalidToken:
		return "invalid_token"
	default:
		return "unknown"
	}
}

// Rejection is a terminal business outcome. It matches its kind's sentinel
// and, when set, the finer cause under errors.Is.
type Rejection struct {
	Kind   RejectKind
	Reason string
	// BanUntil is set for temporary bans.
	BanUntil *time.Time
	// RetryAfter is set for cooldown rejections.
	RetryAfter time.Duration

	cause error
}

func reject(kind RejectKind, reason string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason}
}

func (r *Rejection) withCause(err error) *Rejection {
	r.cause = err
	return r
}

func (r *Rejection) Error() string {
	if r.Reason != "" {
		return r.Reason
	}
	if s, ok := kindSentinels[r.Kind]; ok {
		return s.Error()
	}
	return "rejected"
}

func (r *Rejection) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[r.Kind]; ok {
		errs = append(errs, s)
	}
	if r.cause != nil {
		errs = append(errs, r.cause)
	}
	return errs
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
