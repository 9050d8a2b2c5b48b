package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
)

func samplePlayback() playbackPayload {
	return playbackPayload{
		Item: &trackPayload{
			ID:   "t1",
			Name: "Pyramid Song",
			Artists: []artistPayload{
				{ID: "a1", Name: "Radiohead"},
			},
			Album: simplifiedAlbumPayload{
				ID:   "alb1",
				Name: "Amnesiac",
				Href: "http://api/albums/alb1",
			},
			DurationMS: 289000,
		},
		ProgressMS:           125000,
		IsPlaying:            true,
		CurrentlyPlayingType: "track",
	}
}

func TestNormalizePlaybackState(t *testing.T) {
	t.Run("Track", func(t *testing.T) {
		item, err := NormalizePlaybackState(samplePlayback(), models.KindTrack)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		track, ok := item.(*models.Track)
		if !ok {
			t.Fatalf("expected a track, got %T", item)
		}
		if track.Progress != "2:05" {
			t.Errorf("expected progress 2:05, got %s", track.Progress)
		}
		if track.Album != "Amnesiac" || track.AlbumHref != "http://api/albums/alb1" {
			t.Errorf("unexpected album fields: %+v", track)
		}
	})

	t.Run("Album Is Simplified", func(t *testing.T) {
		item, err := NormalizePlaybackState(samplePlayback(), models.KindAlbum)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		album, ok := item.(*models.Album)
		if !ok {
			t.Fatalf("expected an album, got %T", item)
		}
		if album.ID != "alb1" || album.Href != "http://api/albums/alb1" {
			t.Errorf("unexpected album: %+v", album)
		}
		if len(album.Tracks) != 0 {
			t.Errorf("simplified album should have no track listing, got %d", len(album.Tracks))
		}
	})

	t.Run("Missing Item", func(t *testing.T) {
		raw := samplePlayback()
		raw.Item = nil

		_, err := NormalizePlaybackState(raw, models.KindTrack)
		if !errors.Is(err, shared.ErrUnsupportedContent) {
			t.Errorf("expected ErrUnsupportedContent, got %v", err)
		}
	})

	t.Run("Episode Playback", func(t *testing.T) {
		raw := samplePlayback()
		raw.CurrentlyPlayingType = "episode"

		_, err := NormalizePlaybackState(raw, models.KindTrack)
		if !errors.Is(err, shared.ErrUnsupportedContent) {
			t.Errorf("expected ErrUnsupportedContent, got %v", err)
		}
	})

	t.Run("Unknown Kind", func(t *testing.T) {
		_, err := NormalizePlaybackState(samplePlayback(), models.Kind("playlist"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestNormalizeAlbum(t *testing.T) {
	raw := albumPayload{
		ID:          "alb1",
		Name:        "Amnesiac",
		Artists:     []artistPayload{{ID: "a1", Name: "Radiohead"}},
		ReleaseDate: "2001-06-05",
		Href:        "http://api/albums/alb1",
	}
	raw.Tracks.Items = []albumTrackPayload{
		{ID: "t1", Name: "Packt Like Sardines in a Crushd Tin Box", DurationMS: 240000},
		{ID: "t2", Name: "Pyramid Song", DurationMS: 289000},
	}

	album := NormalizeAlbum(raw)

	if album.Duration != "8:49" {
		t.Errorf("expected aggregated duration 8:49, got %s", album.Duration)
	}
	if len(album.Tracks) != 2 || album.Tracks[1].Name != "Pyramid Song" {
		t.Errorf("unexpected track listing: %+v", album.Tracks)
	}
	if album.DisplayArtists() != "Radiohead" {
		t.Errorf("unexpected artists: %s", album.DisplayArtists())
	}
}
