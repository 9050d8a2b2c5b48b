package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// in-memory sqlite exists per connection
	db, err := shared.OpenStateDB(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

func TestStateRepository(t *testing.T) {
	t.Run("Get Missing Key", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))

		_, ok, err := repo.Get(KeyAccessToken)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected missing key")
		}
	})

	t.Run("Set And Get", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))

		if err := repo.Set(KeyAccessToken, "token123"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		value, ok, err := repo.Get(KeyAccessToken)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok || value != "token123" {
			t.Errorf("expected token123, got %q (present=%v)", value, ok)
		}
	})

	t.Run("Set Replaces", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))

		if err := repo.Set(KeyRefreshToken, "old"); err != nil {
			t.Fatal(err)
		}
		if err := repo.Set(KeyRefreshToken, "new"); err != nil {
			t.Fatal(err)
		}

		value, _, err := repo.Get(KeyRefreshToken)
		if err != nil {
			t.Fatal(err)
		}
		if value != "new" {
			t.Errorf("expected new, got %q", value)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))

		if err := repo.Set(KeyCodeVerifier, "verifier"); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(KeyCodeVerifier); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		_, ok, err := repo.Get(KeyCodeVerifier)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected key to be gone")
		}

		// deleting again is not an error
		if err := repo.Delete(KeyCodeVerifier); err != nil {
			t.Errorf("unexpected error deleting absent key: %v", err)
		}
	})
}

func TestScrobbleRepository(t *testing.T) {
	track := &models.Track{ID: "t1", Name: "Song", Artists: []string{"Artist"}}

	t.Run("Create", func(t *testing.T) {
		repo := NewScrobbleRepository(setupTestDB(t))

		scrobble := models.NewScrobble(track, "vault/t1.md", "Ab3dEf", "great chorus")
		if err := repo.Create(scrobble); err != nil {
			t.Fatalf("failed to create scrobble: %v", err)
		}

		if scrobble.ID == "" {
			t.Error("scrobble ID should be set after creation")
		}
		if scrobble.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", scrobble.Sequence)
		}
	})

	t.Run("List Most Recent First", func(t *testing.T) {
		repo := NewScrobbleRepository(setupTestDB(t))

		for _, body := range []string{"first", "second", "third"} {
			if err := repo.Create(models.NewScrobble(track, "vault/t1.md", "", body)); err != nil {
				t.Fatal(err)
			}
		}

		scrobbles, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}

		if len(scrobbles) != 2 {
			t.Fatalf("expected 2 scrobbles, got %d", len(scrobbles))
		}
		if scrobbles[0].Body != "third" || scrobbles[1].Body != "second" {
			t.Errorf("unexpected order: %s, %s", scrobbles[0].Body, scrobbles[1].Body)
		}
	})

	t.Run("ListByItem", func(t *testing.T) {
		repo := NewScrobbleRepository(setupTestDB(t))

		album := &models.Album{ID: "a1", Name: "LP", Artists: []string{"Artist"}}
		if err := repo.Create(models.NewScrobble(track, "vault/t1.md", "", "on track")); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewScrobble(album, "vault/a1.md", "", "on album")); err != nil {
			t.Fatal(err)
		}

		scrobbles, err := repo.ListByItem("a1")
		if err != nil {
			t.Fatal(err)
		}
		if len(scrobbles) != 1 || scrobbles[0].ItemKind != models.KindAlbum {
			t.Errorf("unexpected result: %+v", scrobbles)
		}
	})
}
