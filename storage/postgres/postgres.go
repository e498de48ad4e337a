// Package postgres is the PostgreSQL account.Store. Session versions are
// bumped with single UPDATE ... RETURNING statements so concurrent logins and
// refreshes never lose an increment.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ account.Store = (*Store)(nil)

// Store implements account.Store on a pgx pool.
type Store struct {
	db *pgxpool.Pool
}

// New connects to dsn and pings the server.
func New(ctx context.Context, dsn string) (*Store, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{db: db}, nil
}

// NewFromPool wraps an existing pool. The caller keeps ownership of it.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Close closes the pool.
func (s *Store) Close() {
	s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	db := stdlib.OpenDBFromPool(s.db)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

// insertErr maps constraint violations to account sentinels.
func insertErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, account.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, account.ErrAlreadyExists)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
