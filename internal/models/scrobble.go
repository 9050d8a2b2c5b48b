package models

import "time"

// Scrobble is the persisted record of one finished log action.
//
// It is written after a session submits and is never read back into a
// session; the history command lists these records.
type Scrobble struct {
	ID          string
	Sequence    int
	ItemID      string
	ItemKind    Kind
	ItemName    string
	Artists     string
	NotePath    string
	BlockAnchor string
	Body        string
	CreatedAt   time.Time
}

// NewScrobble builds a history record for a submitted log action on item.
func NewScrobble(item Item, notePath, blockAnchor, body string) *Scrobble {
	return &Scrobble{
		ItemID:      item.ItemID(),
		ItemKind:    item.ItemKind(),
		ItemName:    item.ItemName(),
		Artists:     item.DisplayArtists(),
		NotePath:    notePath,
		BlockAnchor: blockAnchor,
		Body:        body,
		CreatedAt:   time.Now(),
	}
}
