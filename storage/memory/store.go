// Package memory is an in-process account.Store for tests, examples and
// single-node development. All operations take one mutex, so version
// increments are atomic per store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

var _ account.Store = (*Store)(nil)

// Store holds every record in maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
	bans     []*account.Ban
	mutes    []*account.Mute
	tokens   map[string]*account.SecretToken
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
		tokens:   make(map[string]*account.SecretToken),
	}
}

// CreateAccount inserts a copy of acc. An empty ID is filled with a UUID and
// the email is lower-cased.
func (s *Store) CreateAccount(_ context.Context, acc *account.Account) error {
	const op = "storage.memory.CreateAccount"

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *acc
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.Email = strings.ToLower(cp.Email)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	for _, existing := range s.accounts {
		if existing.ID == cp.ID || existing.Username == cp.Username || existing.Email == cp.Email {
			return fmt.Errorf("%s: %w", op, account.ErrAlreadyExists)
		}
	}

	s.accounts[cp.ID] = &cp
	acc.ID = cp.ID
	acc.Email = cp.Email
	acc.CreatedAt = cp.CreatedAt
	return nil
}

// SetActive toggles the active flag.
func (s *Store) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.Active = active
	return nil
}

// SoftDelete marks the account deleted at the given instant.
func (s *Store) SoftDelete(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.DeletedAt = &at
	return nil
}

func (s *Store) AccountByIdentifier(_ context.Context, identifier string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(identifier)
	for _, acc := range s.accounts {
		if acc.DeletedAt != nil {
			continue
		}
		if acc.Username == identifier || acc.Email == email {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *Store) AccountByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *Store) IncrementSessionVersion(ctx context.Context, id string, authenticatedAt time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return 0, account.ErrNotFound
	}
	return bump(acc, authenticatedAt), nil
}

func (s *Store) CompareAndIncrementSessionVersion(ctx context.Context, id string, expected int64, authenticatedAt time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return 0, account.ErrNotFound
	}
	if acc.SessionVersion != expected {
		return 0, account.ErrVersionConflict
	}
	return bump(acc, authenticatedAt), nil
}

func bump(acc *account.Account, authenticatedAt time.Time) int64 {
	acc.SessionVersion++
	if !authenticatedAt.IsZero() {
		at := authenticatedAt
		acc.LastAuthenticatedAt = &at
	}
	return acc.SessionVersion
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.PasswordHash = hash
	return nil
}

func (s *Store) MarkEmailVerified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.EmailVerified = true
	return nil
}
