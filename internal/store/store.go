package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/t3ns/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on groups.parent for child listing
// 2 - Allowed string attributes
const currentSchemaVersion = 2

// Store is a SQLite-backed snapshot container.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db    *sql.DB
	codec Codec
}

var _ Container = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts Options) (*Store, error) {
	// Open database (creates file if doesn't exist)
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

	return &Store{db: db, codec: opts.codec()}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Write replaces the snapshot in one transaction.
func (s *Store) Write(ctx context.Context, fn func(Group) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"datasets", "attributes", "groups", "snapshot"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, codec) VALUES (?, ?)`, id.String(), string(s.codec)); err != nil {
		return fmt.Errorf("write snapshot row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (path, parent) VALUES ('/', NULL)`); err != nil {
		return fmt.Errorf("create root: %w", err)
	}

	if err := fn(&sqlGroup{ctx: ctx, tx: tx, path: "/", codec: s.codec}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Read runs fn inside a read-only transaction.
func (s *Store) Read(ctx context.Context, fn func(Group) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	var codec string
	err = tx.QueryRowContext(ctx, `SELECT codec FROM snapshot`).Scan(&codec)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Errorf(ir.ErrCodeNotFound, "container holds no snapshot")
	}
	if err != nil {
		return fmt.Errorf("read snapshot row: %w", err)
	}
	return fn(&sqlGroup{ctx: ctx, tx: tx, path: "/", codec: Codec(codec)})
}

// SnapshotID returns the UUIDv7 of the stored snapshot.
func (s *Store) SnapshotID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM snapshot`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ir.Errorf(ir.ErrCodeNotFound, "container holds no snapshot")
	}
	if err != nil {
		return "", fmt.Errorf("read snapshot id: %w", err)
	}
	return id, nil
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

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes groups by parent so child listings avoid a scan.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_groups_parent
		ON groups(parent, path)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// migrateToV2 rebuilds the attributes table so its kind check admits
// strings. SQLite cannot alter a CHECK constraint in place.
func migrateToV2(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`ALTER TABLE attributes RENAME TO attributes_v1`,
		`CREATE TABLE attributes (
			path    TEXT NOT NULL REFERENCES groups(path) ON DELETE CASCADE,
			name    TEXT NOT NULL COLLATE BINARY,
			kind    TEXT NOT NULL CHECK (kind IN ('int', 'float', 'string')),
			length  INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (path, name)
		)`,
		`INSERT INTO attributes SELECT path, name, kind, length, payload FROM attributes_v1`,
		`DROP TABLE attributes_v1`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
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
