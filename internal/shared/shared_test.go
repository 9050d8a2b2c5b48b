package shared

import (
	"strings"
	"testing"
)

func TestGenerateBlockAnchor(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		for _, n := range []int{1, 6, 12} {
			if got := GenerateBlockAnchor(n); len(got) != n {
				t.Errorf("expected anchor of length %d, got %q", n, got)
			}
		}
	})

	t.Run("Alphanumeric", func(t *testing.T) {
		anchor := GenerateBlockAnchor(64)
		for _, c := range anchor {
			if !strings.ContainsRune(anchorAlphabet, c) {
				t.Errorf("anchor contains unexpected character %q", c)
			}
		}
	})

	t.Run("Unique", func(t *testing.T) {
		seen := map[string]bool{}
		for range 50 {
			anchor := GenerateBlockAnchor(6)
			if seen[anchor] {
				t.Fatalf("anchor %q generated twice", anchor)
			}
			seen[anchor] = true
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestOpenStateDB(t *testing.T) {
	t.Run("Applies Pool Limits From Config", func(t *testing.T) {
		db, err := OpenStateDB(DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("expected 1 max open connection, got %d", got)
		}
	})

	t.Run("Keeps Driver Defaults When Unset", func(t *testing.T) {
		db, err := OpenStateDB(DatabaseConfig{Path: ":memory:"})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 0 {
			t.Errorf("expected unlimited open connections, got %d", got)
		}
	})
}

func TestMigrations(t *testing.T) {
	// in-memory sqlite exists per connection
	db, err := OpenStateDB(DatabaseConfig{Path: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Re-running must be a no-op.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("migrations are not idempotent: %v", err)
	}

	for _, table := range []string{"app_state", "scrobbles", "scrobbles_sequence"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("failed to rollback: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected no applied migrations after rollback, got %d", count)
	}
}
