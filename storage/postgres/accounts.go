package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

const accountColumns = `id, username, email, display_name, role, password_hash, active,
	email_verified, session_version, last_authenticated_at, created_at, deleted_at`

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.DisplayName,
		&acc.Role,
		&acc.PasswordHash,
		&acc.Active,
		&acc.EmailVerified,
		&acc.SessionVersion,
		&acc.LastAuthenticatedAt,
		&acc.CreatedAt,
		&acc.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateAccount inserts acc. An empty ID is filled with a UUID and the email
// is lower-cased.
func (s *Store) CreateAccount(ctx context.Context, acc *account.Account) error {
	const op = "storage.postgres.CreateAccount"

	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	acc.Email = strings.ToLower(acc.Email)
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO accounts(id, username, email, display_name, role, password_hash,
			active, email_verified, session_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		acc.ID,
		acc.Username,
		acc.Email,
		acc.DisplayName,
		acc.Role,
		acc.PasswordHash,
		acc.Active,
		acc.EmailVerified,
		acc.SessionVersion,
		acc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, account.ErrAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetActive toggles the active flag.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	const op = "storage.postgres.SetActive"
	return s.execOne(ctx, op, `UPDATE accounts SET active = $2 WHERE id = $1`, id, active)
}

// SoftDelete marks the account deleted.
func (s *Store) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const op = "storage.postgres.SoftDelete"
	return s.execOne(ctx, op, `UPDATE accounts SET deleted_at = $2 WHERE id = $1`, id, at)
}

func (s *Store) AccountByIdentifier(ctx context.Context, identifier string) (*account.Account, error) {
	const op = "storage.postgres.AccountByIdentifier"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE deleted_at IS NULL AND (username = $1 OR email = $2)
		ORDER BY username = $1 DESC
		LIMIT 1
	`

	acc, err := scanAccount(s.db.QueryRow(ctx, query, identifier, strings.ToLower(identifier)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (*account.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *Store) IncrementSessionVersion(ctx context.Context, id string, authenticatedAt time.Time) (int64, error) {
	const op = "storage.postgres.IncrementSessionVersion"

	query := `
		UPDATE accounts
		SET session_version = session_version + 1,
			last_authenticated_at = COALESCE($2::timestamptz, last_authenticated_at)
		WHERE id = $1
		RETURNING session_version
	`

	var version int64
	err := s.db.QueryRow(ctx, query, id, optionalTime(authenticatedAt)).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, account.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return version, nil
}

func (s *Store) CompareAndIncrementSessionVersion(ctx context.Context, id string, expected int64, authenticatedAt time.Time) (int64, error) {
	const op = "storage.postgres.CompareAndIncrementSessionVersion"

	query := `
		UPDATE accounts
		SET session_version = session_version + 1,
			last_authenticated_at = COALESCE($3::timestamptz, last_authenticated_at)
		WHERE id = $1 AND session_version = $2
		RETURNING session_version
	`

	var version int64
	err := s.db.QueryRow(ctx, query, id, expected, optionalTime(authenticatedAt)).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// No row: either the account is gone or the version moved on.
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return 0, fmt.Errorf("%s: %w", op, account.ErrNotFound)
	}
	return 0, fmt.Errorf("%s: %w", op, account.ErrVersionConflict)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const op = "storage.postgres.UpdatePasswordHash"
	return s.execOne(ctx, op, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (s *Store) MarkEmailVerified(ctx context.Context, id string) error {
	const op = "storage.postgres.MarkEmailVerified"
	return s.execOne(ctx, op, `UPDATE accounts SET email_verified = TRUE WHERE id = $1`, id)
}

// execOne runs an UPDATE that must touch exactly one account row.
func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, account.ErrNotFound)
	}
	return nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
