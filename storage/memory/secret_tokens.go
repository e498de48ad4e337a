package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

func (s *Store) LastSecretTokenIssuedAt(_ context.Context, accountID string, purpose account.Purpose) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	for _, tok := range s.tokens {
		if tok.AccountID == accountID && tok.Purpose == purpose && tok.CreatedAt.After(latest) {
			latest = tok.CreatedAt
		}
	}
	if latest.IsZero() {
		return time.Time{}, account.ErrNotFound
	}
	return latest, nil
}

func (s *Store) CreateSecretToken(_ context.Context, token *account.SecretToken, notBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tokens {
		if existing.Hash == token.Hash {
			return account.ErrAlreadyExists
		}
		if !notBefore.IsZero() && existing.AccountID == token.AccountID &&
			existing.Purpose == token.Purpose && existing.CreatedAt.After(notBefore) {
			return account.ErrCooldown
		}
	}

	for _, prior := range s.tokens {
		if prior.AccountID == token.AccountID && prior.Purpose == token.Purpose && prior.UsedAt == nil {
			used := token.CreatedAt
			prior.UsedAt = &used
		}
	}

	cp := *token
	if cp.ID == "" {
		cp.ID = uuid.NewString()
		token.ID = cp.ID
	}
	s.tokens[cp.ID] = &cp
	return nil
}

func (s *Store) SecretTokenByHash(_ context.Context, purpose account.Purpose, hash [32]byte) (*account.SecretToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tok := range s.tokens {
		if tok.Purpose == purpose && tok.Hash == hash {
			cp := *tok
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *Store) ConsumeSecretToken(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[id]
	if !ok {
		return account.ErrNotFound
	}
	if tok.UsedAt != nil {
		return account.ErrAlreadyUsed
	}
	used := at
	tok.UsedAt = &used
	return nil
}
