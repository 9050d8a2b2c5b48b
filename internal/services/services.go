package services

import (
	"context"

	"github.com/desertthunder/notefm/internal/models"
)

// Service defines the music provider surface the logging commands consume.
type Service interface {
	// SearchItems runs a plain, immediately-invoked search for tracks or
	// albums. Debouncing is a UI concern and does not belong here.
	SearchItems(ctx context.Context, query string, kind models.Kind) ([]models.Item, error)

	// CurrentlyPlaying returns the playing item as the requested kind.
	// Returns shared.ErrNoActivePlayback when nothing is playing and
	// shared.ErrUnsupportedContent when the item is not a track or album.
	CurrentlyPlaying(ctx context.Context, kind models.Kind) (models.Item, error)

	// RecentlyPlayed returns the user's recently played tracks, newest first.
	RecentlyPlayed(ctx context.Context, limit int) ([]models.Item, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
