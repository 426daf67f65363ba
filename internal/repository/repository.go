package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type Repository struct {
	db *sqlx.DB
}

// New connects to Postgres. This is the production path.
func New(dsn string) (*Repository, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &Repository{db: db}, nil
}

// NewSQLite opens a sqlite database and applies the schema. Used for local
// development and tests; the SQL in this package stays inside the subset
// both engines accept.
func NewSQLite(path string) (*Repository, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection: an in-memory database exists per connection,
	// and it also serializes concurrent transactions instead of
	// surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// isUniqueViolation recognizes a unique-constraint failure from either
// driver. Racing duplicate inserts are expected here, not bugs: the caller
// treats them as "already processed".
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY,
	first_name TEXT,
	referral_code TEXT NOT NULL UNIQUE,
	referred_by INTEGER REFERENCES users(id),
	balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
	is_subscriber INTEGER NOT NULL DEFAULT 0,
	auto_renew INTEGER NOT NULL DEFAULT 0,
	subscription_expires_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	kind TEXT NOT NULL,
	amount INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	reference_id TEXT,
	reference_type TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_reference_uq
	ON ledger_entries (user_id, reference_type, reference_id)
	WHERE reference_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS ledger_entries_user_kind_idx
	ON ledger_entries (user_id, kind, created_at);

CREATE TABLE IF NOT EXISTS trophies (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	race_name TEXT,
	result_id TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS trophies_user_idx ON trophies (user_id);
`
