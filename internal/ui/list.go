package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/notefm/internal/models"
)

var (
	_ list.Item = resultItem{}
)

// resultItem wraps [models.Item] to implement [list.Item].
type resultItem struct {
	item models.Item
}

func (i resultItem) FilterValue() string { return i.item.ItemName() }
func (i resultItem) Title() string       { return i.item.ItemName() }
func (i resultItem) Description() string {
	desc := i.item.DisplayArtists()
	switch v := i.item.(type) {
	case *models.Track:
		if v.Duration != "" {
			desc = fmt.Sprintf("%s • %s", desc, v.Duration)
		}
	case *models.Album:
		if v.ReleaseDate != "" {
			desc = fmt.Sprintf("%s • %s", desc, v.ReleaseDate)
		}
	}
	return desc
}
