package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

func (s *Store) ActiveBan(_ context.Context, accountID string, now time.Time) (*account.Ban, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *account.Ban
	for _, b := range s.bans {
		if b.AccountID != accountID || !b.EffectivelyActive(now) {
			continue
		}
		if newest == nil || b.CreatedAt.After(newest.CreatedAt) {
			newest = b
		}
	}
	if newest == nil {
		return nil, account.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (s *Store) ActiveMute(_ context.Context, accountID string, now time.Time) (*account.Mute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *account.Mute
	for _, m := range s.mutes {
		if m.AccountID != accountID || !m.EffectivelyActive(now) {
			continue
		}
		if newest == nil || m.CreatedAt.After(newest.CreatedAt) {
			newest = m
		}
	}
	if newest == nil {
		return nil, account.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (s *Store) CreateBan(_ context.Context, ban *account.Ban) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[ban.AccountID]; !ok {
		return account.ErrNotFound
	}
	cp := *ban
	if cp.ID == "" {
		cp.ID = uuid.NewString()
		ban.ID = cp.ID
	}
	s.bans = append(s.bans, &cp)
	return nil
}

func (s *Store) CreateMute(_ context.Context, mute *account.Mute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[mute.AccountID]; !ok {
		return account.ErrNotFound
	}
	cp := *mute
	if cp.ID == "" {
		cp.ID = uuid.NewString()
		mute.ID = cp.ID
	}
	s.mutes = append(s.mutes, &cp)
	return nil
}

func (s *Store) LiftBans(_ context.Context, accountID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, b := range s.bans {
		if b.AccountID == accountID && b.Active {
			b.Active = false
			lifted := at
			b.LiftedAt = &lifted
			n++
		}
	}
	return n, nil
}

func (s *Store) LiftMutes(_ context.Context, accountID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, m := range s.mutes {
		if m.AccountID == accountID && m.Active {
			m.Active = false
			lifted := at
			m.LiftedAt = &lifted
			n++
		}
	}
	return n, nil
}
