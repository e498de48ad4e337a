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

func (s *Store) LastSecretTokenIssuedAt(ctx context.Context, accountID string, purpose account.Purpose) (time.Time, error) {
	const op = "storage.postgres.LastSecretTokenIssuedAt"

	var last *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT max(created_at) FROM secret_tokens WHERE account_id = $1 AND purpose = $2`,
		accountID, string(purpose)).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if last == nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, account.ErrNotFound)
	}
	return *last, nil
}

// CreateSecretToken supersedes the account's unused tokens of the same purpose
// and inserts token in one transaction. The account row is locked first so
// concurrent issuers see each other's inserts when checking notBefore.
func (s *Store) CreateSecretToken(ctx context.Context, token *account.SecretToken, notBefore time.Time) error {
	const op = "storage.postgres.CreateSecretToken"

	if token.ID == "" {
		token.ID = uuid.NewString()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, token.AccountID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if !notBefore.IsZero() {
		var recent bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM secret_tokens WHERE account_id = $1 AND purpose = $2 AND created_at > $3)`,
			token.AccountID, string(token.Purpose), notBefore).Scan(&recent)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if recent {
			return fmt.Errorf("%s: %w", op, account.ErrCooldown)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE secret_tokens SET used_at = $3 WHERE account_id = $1 AND purpose = $2 AND used_at IS NULL`,
		token.AccountID, string(token.Purpose), token.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO secret_tokens(id, account_id, purpose, token_hash, created_at, expires_at, request_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query,
		token.ID,
		token.AccountID,
		string(token.Purpose),
		token.Hash[:],
		token.CreatedAt,
		token.ExpiresAt,
		token.RequestIP,
		token.UserAgent,
	)
	if err != nil {
		return insertErr(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) SecretTokenByHash(ctx context.Context, purpose account.Purpose, hash [32]byte) (*account.SecretToken, error) {
	const op = "storage.postgres.SecretTokenByHash"

	query := `
		SELECT id, account_id, purpose, token_hash, created_at, expires_at, used_at, request_ip, user_agent
		FROM secret_tokens
		WHERE purpose = $1 AND token_hash = $2
	`

	var (
		tok     account.SecretToken
		purp    string
		rawHash []byte
	)
	err := s.db.QueryRow(ctx, query, string(purpose), hash[:]).Scan(
		&tok.ID,
		&tok.AccountID,
		&purp,
		&rawHash,
		&tok.CreatedAt,
		&tok.ExpiresAt,
		&tok.UsedAt,
		&tok.RequestIP,
		&tok.UserAgent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tok.Purpose = account.Purpose(purp)
	copy(tok.Hash[:], rawHash)
	return &tok, nil
}

// ConsumeSecretToken marks the token used only if nobody else has.
func (s *Store) ConsumeSecretToken(ctx context.Context, id string, at time.Time) error {
	const op = "storage.postgres.ConsumeSecretToken"

	tag, err := s.db.Exec(ctx,
		`UPDATE secret_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM secret_tokens WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, account.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, account.ErrAlreadyUsed)
}
