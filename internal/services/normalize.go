package services

import (
	"fmt"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
)

// Normalization: raw Spotify payloads → canonical models. All pure.

func artistNames(artists []artistPayload) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// NormalizeTrack converts a raw track payload into a [models.Track].
func NormalizeTrack(raw trackPayload) *models.Track {
	return &models.Track{
		ID:        raw.ID,
		Name:      raw.Name,
		Artists:   artistNames(raw.Artists),
		Album:     raw.Album.Name,
		AlbumID:   raw.Album.ID,
		AlbumHref: raw.Album.Href,
		Duration:  models.FormatDuration(raw.DurationMS),
	}
}

// NormalizeAlbum converts a full album payload, aggregating the track
// durations into the album duration.
func NormalizeAlbum(raw albumPayload) *models.Album {
	var totalMS int64
	tracks := make([]models.TrackRef, 0, len(raw.Tracks.Items))
	for _, t := range raw.Tracks.Items {
		totalMS += t.DurationMS
		tracks = append(tracks, models.TrackRef{ID: t.ID, Name: t.Name})
	}

	return &models.Album{
		ID:          raw.ID,
		Name:        raw.Name,
		Artists:     artistNames(raw.Artists),
		ReleaseDate: raw.ReleaseDate,
		Duration:    models.FormatDuration(totalMS),
		Href:        raw.Href,
		Tracks:      tracks,
	}
}

// NormalizeSimplifiedAlbum converts the album object embedded in tracks and
// search results. Tracks stays empty until the full album is fetched.
func NormalizeSimplifiedAlbum(raw simplifiedAlbumPayload) *models.Album {
	return &models.Album{
		ID:          raw.ID,
		Name:        raw.Name,
		Artists:     artistNames(raw.Artists),
		ReleaseDate: raw.ReleaseDate,
		Href:        raw.Href,
	}
}

// NormalizePlaybackState converts a playback payload into the requested
// item kind.
//
// A missing item or a non-track currently_playing_type (podcast episodes,
// ads) is unsupported content and reported as such, never silently dropped.
// For KindAlbum the result is the simplified album of the playing track;
// the caller upgrades it to a full album via its href.
func NormalizePlaybackState(raw playbackPayload, kind models.Kind) (models.Item, error) {
	if raw.Item == nil || raw.CurrentlyPlayingType != "track" {
		return nil, fmt.Errorf("%w: playing %q", shared.ErrUnsupportedContent, raw.CurrentlyPlayingType)
	}

	switch kind {
	case models.KindTrack:
		track := NormalizeTrack(*raw.Item)
		track.Progress = models.FormatDuration(raw.ProgressMS)
		return track, nil
	case models.KindAlbum:
		return NormalizeSimplifiedAlbum(raw.Item.Album), nil
	default:
		return nil, fmt.Errorf("%w: kind %q", shared.ErrInvalidArgument, kind)
	}
}

// NormalizeRecentlyPlayed flattens the recently-played envelope into tracks,
// newest first, deduplicated by id (the same song played twice in a row
// shows up once).
func NormalizeRecentlyPlayed(raw recentlyPlayedPayload) []models.Item {
	seen := make(map[string]bool, len(raw.Items))
	var items []models.Item
	for _, entry := range raw.Items {
		track := NormalizeTrack(entry.Track)
		if track.ID != "" && seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		items = append(items, track)
	}
	return items
}
