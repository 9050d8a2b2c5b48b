package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
)

// ScrobbleRepository persists [models.Scrobble] history records.
type ScrobbleRepository struct {
	db *sql.DB
}

// NewScrobbleRepository creates a new [ScrobbleRepository] with the given database connection
func NewScrobbleRepository(db *sql.DB) *ScrobbleRepository {
	return &ScrobbleRepository{db: db}
}

// Create inserts a new scrobble with generated ID and sequence.
func (r *ScrobbleRepository) Create(scrobble *models.Scrobble) error {
	sequence, err := NextSequence(r.db, "scrobbles")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	scrobble.ID = shared.GenerateID()
	scrobble.Sequence = sequence
	if scrobble.CreatedAt.IsZero() {
		scrobble.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO scrobbles (id, sequence, item_id, item_kind, item_name, artists, note_path, block_anchor, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		scrobble.ID, scrobble.Sequence, scrobble.ItemID, string(scrobble.ItemKind),
		scrobble.ItemName, scrobble.Artists, scrobble.NotePath, scrobble.BlockAnchor,
		scrobble.Body, scrobble.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrobble: %w", err)
	}

	return nil
}

// List returns up to limit scrobbles, most recent first. A non-positive
// limit returns everything.
func (r *ScrobbleRepository) List(limit int) ([]*models.Scrobble, error) {
	query := `
		SELECT id, sequence, item_id, item_kind, item_name, artists, note_path, block_anchor, body, created_at
		FROM scrobbles
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobbles: %w", err)
	}
	defer rows.Close()

	var out []*models.Scrobble
	for rows.Next() {
		var (
			s    models.Scrobble
			kind string
		)
		if err := rows.Scan(&s.ID, &s.Sequence, &s.ItemID, &kind, &s.ItemName, &s.Artists,
			&s.NotePath, &s.BlockAnchor, &s.Body, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scrobble: %w", err)
		}
		s.ItemKind = models.Kind(kind)
		out = append(out, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scrobbles: %w", err)
	}

	return out, nil
}

// ListByItem returns all scrobbles recorded for the given item id, most recent first.
func (r *ScrobbleRepository) ListByItem(itemID string) ([]*models.Scrobble, error) {
	query := `
		SELECT id, sequence, item_id, item_kind, item_name, artists, note_path, block_anchor, body, created_at
		FROM scrobbles
		WHERE item_id = ?
		ORDER BY sequence DESC
	`

	rows, err := r.db.Query(query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobbles for item %s: %w", itemID, err)
	}
	defer rows.Close()

	var out []*models.Scrobble
	for rows.Next() {
		var (
			s    models.Scrobble
			kind string
		)
		if err := rows.Scan(&s.ID, &s.Sequence, &s.ItemID, &kind, &s.ItemName, &s.Artists,
			&s.NotePath, &s.BlockAnchor, &s.Body, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scrobble: %w", err)
		}
		s.ItemKind = models.Kind(kind)
		out = append(out, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scrobbles: %w", err)
	}

	return out, nil
}
