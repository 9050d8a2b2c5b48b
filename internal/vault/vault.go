// package vault is the boundary to the user's note collection: a folder of
// Markdown documents with YAML frontmatter. Everything above it talks in
// [Note] values and never touches the filesystem directly, so the note
// engine can be driven by the filesystem implementation here or by a mock.
package vault

import (
	"context"

	"github.com/desertthunder/notefm/internal/models"
)

// Note is one Markdown document. Frontmatter preserves the key order it was
// written with; Body is everything below the closing delimiter.
type Note struct {
	Path        string
	Frontmatter *models.Frontmatter
	Body        string
}

// MutateFunc edits a note's frontmatter in place.
type MutateFunc func(fm *models.Frontmatter)

// Vault is the document store contract.
//
// Paths are vault-relative, forward-slashed, ending in .md. NoteByPath
// returns nil when no such note exists. Append and MutateFrontmatter write
// through to the store and update the passed note. The editor-facing calls
// (ActiveNotePath, OpenNote, MoveCursorToEnd) are best effort and never
// interrupt a logging flow.
type Vault interface {
	CreateNote(ctx context.Context, path, body string) (*Note, error)
	NoteByPath(path string) *Note
	Append(ctx context.Context, note *Note, text string) error
	MutateFrontmatter(ctx context.Context, note *Note, fn MutateFunc) error
	ActiveNotePath() string
	OpenNote(note *Note) error
	Refresh(note *Note) error
	MoveCursorToEnd()
}
