// Package devmail is an in-memory mailbox for local development. It keeps
// the newest one-time token per address and purpose so a developer can read
// it back without a mail transport, and never writes tokens to a log.
package devmail

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
)

type Kind string

const (
	KindPasswordReset     Kind = "password_reset"
	KindEmailVerification Kind = "email_verification"
)

// Message is one delivered token.
type Message struct {
	Kind      Kind       `json:"kind"`
	AccountID string     `json:"account_id"`
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	SentAt    time.Time  `json:"sent_at"`
}

// Mailbox implements auth.Notifier. Delivered messages are forwarded to next
// when it is set.
type Mailbox struct {
	next auth.Notifier

	mu     sync.Mutex
	latest map[string]map[Kind]Message
}

var _ auth.Notifier = (*Mailbox)(nil)

func New(next auth.Notifier) *Mailbox {
	return &Mailbox{next: next, latest: make(map[string]map[Kind]Message)}
}

func (m *Mailbox) SendPasswordReset(ctx context.Context, acc *auth.Account, token string, expiresAt *time.Time) error {
	m.put(Message{Kind: KindPasswordReset, AccountID: acc.ID, Email: acc.Email, Token: token, ExpiresAt: expiresAt})
	if m.next == nil {
		return nil
	}
	return m.next.SendPasswordReset(ctx, acc, token, expiresAt)
}

func (m *Mailbox) SendEmailVerification(ctx context.Context, acc *auth.Account, token string) error {
	m.put(Message{Kind: KindEmailVerification, AccountID: acc.ID, Email: acc.Email, Token: token})
	if m.next == nil {
		return nil
	}
	return m.next.SendEmailVerification(ctx, acc, token)
}

func (m *Mailbox) put(msg Message) {
	msg.SentAt = time.Now().UTC()
	key := strings.ToLower(msg.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest[key] == nil {
		m.latest[key] = make(map[Kind]Message, 2)
	}
	m.latest[key][msg.Kind] = msg
}

// Latest returns the newest message of kind sent to email.
func (m *Mailbox) Latest(email string, kind Kind) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.latest[strings.ToLower(email)][kind]
	return msg, ok
}

// Messages lists the newest message of every kind sent to email, ordered by
// kind.
func (m *Mailbox) Messages(email string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKind := m.latest[strings.ToLower(email)]
	out := make([]Message, 0, len(byKind))
	for _, msg := range byKind {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
