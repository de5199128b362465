package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entity status values shared across the tenant chain.
const (
	StatusEnabled  = "ENABLED"
	StatusDisabled = "DISABLED"
)

var (
	// ErrOrganizationNameExists is returned when an organization save would
	// collide on name key.
	ErrOrganizationNameExists = errors.New("organization by that name already exists")
	// ErrDirectoryNameExists is returned when a directory save would collide
	// on name within its organization.
	ErrDirectoryNameExists = errors.New("directory by that name already exists")
	// ErrGroupNameExists is returned when a group save would collide on name
	// within its directory.
	ErrGroupNameExists = errors.New("group by that name already exists")
	// ErrAccountEmailExists is returned when an account save would collide on
	// email within its directory.
	ErrAccountEmailExists = errors.New("account by that email already exists")
	// ErrAccountUsernameExists is returned when an account save would collide
	// on username within its directory.
	ErrAccountUsernameExists = errors.New("account by that username already exists")
	// ErrNotFound is returned by removal helpers when the target record does
	// not belong to the parent it was addressed through.
	ErrNotFound = errors.New("record not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS organization (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	name_key TEXT NOT NULL,
	type     TEXT NOT NULL,
	status   TEXT NOT NULL,
	created  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS directory (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	name            TEXT NOT NULL,
	is_default      INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	created         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS account (
	id           TEXT PRIMARY KEY,
	directory_id TEXT NOT NULL,
	user_name    TEXT,
	password     TEXT NOT NULL,
	email        TEXT NOT NULL,
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	status       TEXT NOT NULL,
	created      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS "group" (
	id           TEXT PRIMARY KEY,
	directory_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	status       TEXT NOT NULL,
	created      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS account_group (
	account_id TEXT NOT NULL,
	group_id   TEXT NOT NULL,
	PRIMARY KEY (account_id, group_id)
);

CREATE TABLE IF NOT EXISTS account_api_key (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	public     TEXT NOT NULL,
	private    TEXT NOT NULL,
	created    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS application (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	signing_key       TEXT NOT NULL,
	access_token_ttl  INTEGER NOT NULL,
	refresh_token_ttl INTEGER NOT NULL,
	status            TEXT NOT NULL,
	created           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS application_directory (
	application_id TEXT NOT NULL,
	directory_id   TEXT NOT NULL,
	PRIMARY KEY (application_id, directory_id)
);
`

// Store is the SQLite-backed relational store. Safe for concurrent use; the
// underlying pool serializes writers.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path required")
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the raw handle for callers that need direct access in tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// querier abstracts *sql.DB and *sql.Tx so finders can run inside or outside
// a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
