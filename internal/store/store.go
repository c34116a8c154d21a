package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/forkful/tasteledger/internal/sqlguard"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Empty database (pre-versioning)
// 1 - Initial schema (decision_events, meal_scores, pantry_items)
const currentSchemaVersion = 1

// Store provides durable storage for the decision ledger.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db    *sql.DB
	guard *sqlguard.Guard
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Every runtime statement the returned store issues is gated through the
// default tenant-safety guard first. Schema DDL is applied directly; it
// is embedded, versioned, and never built from input.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, guard: sqlguard.Default()}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Guard returns the tenant-safety guard gating this store's statements.
func (s *Store) Guard() *sqlguard.Guard {
	return s.guard
}

// assertSafe runs both guard checks. A non-nil return means the
// statement must not execute; violations are author bugs and propagate
// unchanged.
func (s *Store) assertSafe(query string) error {
	if err := s.guard.AssertTenantSafe(query); err != nil {
		return err
	}
	return s.guard.AssertStyleContract(query)
}

// guardedExec gates a write statement and executes it.
func (s *Store) guardedExec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.assertSafe(query); err != nil {
		return nil, err
	}
	return s.db.ExecContext(ctx, query, args...)
}

// guardedQuery gates a read statement and executes it.
// Callers are responsible for closing the returned rows.
func (s *Store) guardedQuery(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := s.assertSafe(query); err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, query, args...)
}

// guardedQueryRow gates a single-row read and executes it.
func (s *Store) guardedQueryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	if err := s.assertSafe(query); err != nil {
		return nil, err
	}
	return s.db.QueryRowContext(ctx, query, args...), nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// v1 is the initial schema; schema.sql's IF NOT EXISTS handles both
	// fresh and pre-versioning databases. Future migrations slot in here
	// sequentially.
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
