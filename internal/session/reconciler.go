// package session holds the interactive logging flow: free text, reference
// picking, and the final write-out that stitches notes together.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notefm/internal/formatter"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/notes"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/desertthunder/notefm/internal/vault"
)

const anchorLength = 6

// PendingReference is an item the user picked during the session, together
// with the wikilink text that was inserted into the free text for it.
type PendingReference struct {
	Item     models.Item
	LinkText string
}

// Reconciler tracks references picked during a session and settles them
// against the final free text on submit.
//
// Picking only stages work. The user can still delete an inserted link
// before submitting, and a deleted link must not leave a backlink behind,
// so every pending reference is re-checked against the text at finalize
// time and only survivors get notes and backlinks.
type Reconciler struct {
	subject models.Item
	notes   *notes.Repository
	vault   vault.Vault
	config  *shared.Config
	logger  *log.Logger
	now     func() time.Time

	pending []PendingReference
}

// NewReconciler creates a Reconciler for one session's subject.
func NewReconciler(subject models.Item, repo *notes.Repository, v vault.Vault, config *shared.Config, logger *log.Logger, now func() time.Time) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		subject: subject,
		notes:   repo,
		vault:   v,
		config:  config,
		logger:  logger,
		now:     now,
	}
}

// Choose stages a reference and returns the wikilink text to insert into
// the free text. Referencing the subject itself is rejected. Choosing an
// already-pending item returns fresh link text without staging a second
// entry, so one backlink is written no matter how often it was picked.
func (r *Reconciler) Choose(item models.Item) (string, error) {
	if item.ItemID() == r.subject.ItemID() {
		return "", fmt.Errorf("%w: cannot reference %s from itself", shared.ErrSelfReference, item.ItemName())
	}

	linkText := formatter.Wikilink(item, false, "", r.config.Links.WikilinkShowArtists)

	for _, ref := range r.pending {
		if ref.Item.ItemID() == item.ItemID() {
			return linkText, nil
		}
	}

	r.pending = append(r.pending, PendingReference{Item: item, LinkText: linkText})
	return linkText, nil
}

// Pending returns the staged references, oldest first.
func (r *Reconciler) Pending() []PendingReference {
	return r.pending
}

// Finalize settles the staged references against the submitted text and
// returns the block anchor for the subject's entry, or "" when no
// reference survived the user's edits.
//
// References are processed newest first. The first survivor mints the
// anchor; all survivors share it, because they all embed the same block of
// the subject's note. Each survivor's note gains an entry embedding the
// subject's anchored block, a plain link back to the subject, and the
// playback position when the subject is a track.
func (r *Reconciler) Finalize(ctx context.Context, text string) (string, error) {
	anchor := ""

	for i := len(r.pending) - 1; i >= 0; i-- {
		ref := r.pending[i]
		if !strings.Contains(text, ref.LinkText) {
			r.logger.Debug("reference edited out, skipping", "item", ref.Item.ItemName())
			continue
		}

		if anchor == "" {
			anchor = shared.GenerateBlockAnchor(anchorLength)
		}

		note, err := r.notes.GetOrCreate(ctx, ref.Item)
		if err != nil {
			return "", fmt.Errorf("failed to create note for %s: %w", ref.Item.ItemName(), err)
		}

		embed := formatter.Wikilink(r.subject, true, anchor, r.config.Links.WikilinkShowArtists)
		backlink := formatter.Wikilink(r.subject, false, "", r.config.Links.WikilinkShowArtists)

		progress := ""
		if track, ok := r.subject.(*models.Track); ok {
			progress = track.Progress
		}

		entry := formatter.LogEntry(embed, progress, "", backlink, r.now())
		if err := r.vault.Append(ctx, note, entry); err != nil {
			return "", fmt.Errorf("failed to write backlink to %s: %w", note.Path, err)
		}
	}

	r.pending = nil
	return anchor, nil
}
