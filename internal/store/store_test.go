package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path, Options{})
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"snapshot", "groups", "attributes", "datasets"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t, Options{})

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"synchronous":  "1",
	} {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_Migrations(t *testing.T) {
	s := createTestStore(t, Options{})

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_groups_parent'",
	).Scan(&name)
	if err != nil {
		t.Errorf("index idx_groups_parent missing: %v", err)
	}
}

func TestOpen_MigratesV1Attributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.db")
	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Put the file back into the v1 layout: int and float attributes only.
	for _, stmt := range []string{
		`DROP TABLE attributes`,
		`CREATE TABLE attributes (
			path    TEXT NOT NULL REFERENCES groups(path) ON DELETE CASCADE,
			name    TEXT NOT NULL COLLATE BINARY,
			kind    TEXT NOT NULL CHECK (kind IN ('int', 'float')),
			length  INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (path, name)
		)`,
		`PRAGMA user_version = 1`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("downgrade: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	err = s.Write(ctx, func(root Group) error {
		return root.SetStringAttr("digest", "abc")
	})
	if err != nil {
		t.Fatalf("string attribute after migration: %v", err)
	}
	err = s.Read(ctx, func(root Group) error {
		v, err := root.StringAttr("digest")
		if err != nil {
			return err
		}
		if v != "abc" {
			t.Errorf("digest = %q, want %q", v, "abc")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"), Options{})
	if err == nil {
		t.Fatal("Open() into a missing directory should fail")
	}
}

func TestWrite_ReplacesPreviousSnapshot(t *testing.T) {
	s := createTestStore(t, Options{})
	ctx := context.Background()

	write := func(name string) string {
		t.Helper()
		err := s.Write(ctx, func(root Group) error {
			_, err := root.CreateGroup(name)
			return err
		})
		if err != nil {
			t.Fatalf("Write(%s) failed: %v", name, err)
		}
		id, err := s.SnapshotID(ctx)
		if err != nil {
			t.Fatalf("SnapshotID() failed: %v", err)
		}
		return id
	}

	first := write("a")
	second := write("b")
	if first == second {
		t.Errorf("snapshot ids repeat: %s", first)
	}
	if first > second {
		t.Errorf("snapshot ids not increasing: %s then %s", first, second)
	}

	err := s.Read(ctx, func(root Group) error {
		names, err := root.Groups()
		if err != nil {
			return err
		}
		if len(names) != 1 || names[0] != "b" {
			t.Errorf("groups = %v, want [b]", names)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
}
