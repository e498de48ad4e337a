package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

func (s *Store) ActiveBan(ctx context.Context, accountID string, now time.Time) (*account.Ban, error) {
	const op = "storage.postgres.ActiveBan"

	query := `
		SELECT id, account_id, actor_id, reason, created_at, expires_at, active, lifted_at
		FROM account_bans
		WHERE account_id = $1 AND active AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var b account.Ban
	err := s.db.QueryRow(ctx, query, accountID, now).Scan(
		&b.ID,
		&b.AccountID,
		&b.ActorID,
		&b.Reason,
		&b.CreatedAt,
		&b.ExpiresAt,
		&b.Active,
		&b.LiftedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &b, nil
}

func (s *Store) ActiveMute(ctx context.Context, accountID string, now time.Time) (*account.Mute, error) {
	const op = "storage.postgres.ActiveMute"

	query := `
		SELECT id, account_id, actor_id, reason, created_at, expires_at, active, lifted_at
		FROM account_mutes
		WHERE account_id = $1 AND active AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var m account.Mute
	err := s.db.QueryRow(ctx, query, accountID, now).Scan(
		&m.ID,
		&m.AccountID,
		&m.ActorID,
		&m.Reason,
		&m.CreatedAt,
		&m.ExpiresAt,
		&m.Active,
		&m.LiftedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

func (s *Store) CreateBan(ctx context.Context, ban *account.Ban) error {
	const op = "storage.postgres.CreateBan"

	if ban.ID == "" {
		ban.ID = uuid.NewString()
	}

	query := `
		INSERT INTO account_bans(id, account_id, actor_id, reason, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		ban.ID,
		ban.AccountID,
		ban.ActorID,
		ban.Reason,
		ban.CreatedAt,
		ban.ExpiresAt,
		ban.Active,
	)
	return insertErr(op, err)
}

func (s *Store) CreateMute(ctx context.Context, mute *account.Mute) error {
	const op = "storage.postgres.CreateMute"

	if mute.ID == "" {
		mute.ID = uuid.NewString()
	}

	query := `
		INSERT INTO account_mutes(id, account_id, actor_id, reason, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		mute.ID,
		mute.AccountID,
		mute.ActorID,
		mute.Reason,
		mute.CreatedAt,
		mute.ExpiresAt,
		mute.Active,
	)
	return insertErr(op, err)
}

func (s *Store) LiftBans(ctx context.Context, accountID string, at time.Time) (int64, error) {
	const op = "storage.postgres.LiftBans"

	tag, err := s.db.Exec(ctx,
		`UPDATE account_bans SET active = FALSE, lifted_at = $2 WHERE account_id = $1 AND active`,
		accountID, at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) LiftMutes(ctx context.Context, accountID string, at time.Time) (int64, error) {
	const op = "storage.postgres.LiftMutes"

	tag, err := s.db.Exec(ctx,
		`UPDATE account_mutes SET active = FALSE, lifted_at = $2 WHERE account_id = $1 AND active`,
		accountID, at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}
