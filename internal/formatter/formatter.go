// package formatter renders items and log entries as Obsidian-flavored
// Markdown: wikilinks, block anchors, and the dated entry blocks appended
// to notes.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/notefm/internal/models"
)

// timestampLayout matches the entry headers the vault already contains,
// e.g. "3 Sep 2026, 4:05pm".
const timestampLayout = "2 Jan 2006, 3:04pm"

// DisplayTitle renders an item as "{artists} - {name}".
func DisplayTitle(item models.Item) string {
	return fmt.Sprintf("%s - %s", item.DisplayArtists(), item.ItemName())
}

// Wikilink renders an item as an Obsidian wikilink targeting its note.
// The target is the item id (the note filename); anchor scopes the link to
// a block; embed renders the linked block inline.
func Wikilink(item models.Item, embed bool, anchor string, showArtists bool) string {
	var b strings.Builder
	if embed {
		b.WriteString("!")
	}
	b.WriteString("[[")
	b.WriteString(item.ItemID())
	if anchor != "" {
		b.WriteString("#^")
		b.WriteString(anchor)
	}
	b.WriteString("|")
	if showArtists {
		b.WriteString(DisplayTitle(item))
	} else {
		b.WriteString(item.ItemName())
	}
	b.WriteString("]]")
	return b.String()
}

// Alias renders the frontmatter alias for an item.
func Alias(item models.Item, showArtists bool) string {
	if showArtists {
		return DisplayTitle(item)
	}
	return item.ItemName()
}

// LogEntry renders a dated entry block for a note.
//
// The entry carries the free text (anchored when anchor is non-empty), an
// italic footer with the reference link and playback progress, and a rule
// separating it from the next entry. Without progress the reference link
// moves to its own line; without either the footer disappears entirely.
func LogEntry(text, progress, anchor, refLink string, at time.Time) string {
	var b strings.Builder

	b.WriteString("**")
	b.WriteString(at.Format(timestampLayout))
	b.WriteString("**\n\n")

	b.WriteString(text)
	if anchor != "" {
		b.WriteString(" ^")
		b.WriteString(anchor)
	}
	b.WriteString("\n")

	if progress != "" {
		b.WriteString("\n*")
		if refLink != "" {
			b.WriteString(refLink)
			b.WriteString(", ")
		}
		b.WriteString(progress)
		b.WriteString("*\n\n")
	} else if refLink != "" {
		b.WriteString("\n")
		b.WriteString(refLink)
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	return b.String()
}
