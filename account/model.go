package account

import "time"

// Account is the credential record of a single user.
type Account struct {
	ID                  string
	Username            string
	Email               string
	DisplayName         string
	Role                string
	PasswordHash        string
	Active              bool
	EmailVerified       bool
	SessionVersion      int64
	LastAuthenticatedAt *time.Time
	CreatedAt           time.Time
	DeletedAt           *time.Time
}

// Usable reports whether the account may hold a session at all. Email
// verification is judged separately by the login flow.
func (a *Account) Usable() bool {
	return a != nil && a.Active && a.DeletedAt == nil
}

// Ban blocks authentication until it is lifted or ExpiresAt passes.
// A nil ExpiresAt means the ban is permanent.
type Ban struct {
	ID        string
	AccountID string
	ActorID   string
	Reason    string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Active    bool
	LiftedAt  *time.Time
}

// Permanent reports whether the ban has no expiry.
func (b *Ban) Permanent() bool {
	return b.ExpiresAt == nil
}

// EffectivelyActive reports whether the ban is enforced at now.
func (b *Ban) EffectivelyActive(now time.Time) bool {
	return b != nil && b.Active && (b.ExpiresAt == nil || b.ExpiresAt.After(now))
}

// Mute restricts posting. It never blocks authentication.
type Mute struct {
	ID        string
	AccountID string
	ActorID   string
	Reason    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Active    bool
	LiftedAt  *time.Time
}

// EffectivelyActive reports whether the mute is enforced at now.
func (m *Mute) EffectivelyActive(now time.Time) bool {
	return m != nil && m.Active && m.ExpiresAt.After(now)
}
