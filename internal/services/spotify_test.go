package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
)

// newTestService wires a SpotifyService against an httptest API server,
// with a token endpoint that is never expected to be hit because a fresh
// token is seeded.
func newTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	now := time.Now()
	state := setupState(t)
	tokens := newTestTokenStore(t, state, "http://127.0.0.1/token", now)
	seedToken(t, state, "access_test", "refresh_test", now.UnixMilli()+3600000)

	service, err := NewSpotifyService(SpotifyServiceOpts{Tokens: tokens, BaseURL: api.URL})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Requests Carry Bearer Token", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer access_test" {
				t.Errorf("expected bearer header, got %q", got)
			}
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		}))

		if _, err := service.SearchItems(ctx, "anything", models.KindTrack); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Search Tracks", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Path; got != "/search" {
				t.Errorf("expected /search, got %s", got)
			}
			q := r.URL.Query()
			if q.Get("type") != "track" || q.Get("q") != "paranoid android" {
				t.Errorf("unexpected query: %v", q)
			}
			fmt.Fprint(w, `{"tracks":{"items":[
				{"id":"6LgJvl0Xdtc73xB8qOyOtZ","name":"Paranoid Android",
				 "artists":[{"id":"a1","name":"Radiohead"}],
				 "album":{"id":"alb1","name":"OK Computer","href":"http://x/albums/alb1"},
				 "duration_ms":383000}
			]}}`)
		}))

		items, err := service.SearchItems(ctx, "paranoid android", models.KindTrack)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}

		track, ok := items[0].(*models.Track)
		if !ok {
			t.Fatalf("expected a track, got %T", items[0])
		}
		if track.Name != "Paranoid Android" || track.Album != "OK Computer" {
			t.Errorf("unexpected track: %+v", track)
		}
		if track.Duration != "6:23" {
			t.Errorf("expected duration 6:23, got %s", track.Duration)
		}
	})

	t.Run("Search Albums", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("type"); got != "album" {
				t.Errorf("expected type album, got %s", got)
			}
			fmt.Fprint(w, `{"albums":{"items":[
				{"id":"alb1","name":"OK Computer","release_date":"1997-05-21",
				 "artists":[{"id":"a1","name":"Radiohead"}],"href":"http://x/albums/alb1"}
			]}}`)
		}))

		items, err := service.SearchItems(ctx, "ok computer", models.KindAlbum)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		album, ok := items[0].(*models.Album)
		if !ok {
			t.Fatalf("expected an album, got %T", items[0])
		}
		if album.ReleaseDate != "1997-05-21" || album.ItemKind() != models.KindAlbum {
			t.Errorf("unexpected album: %+v", album)
		}
	})

	t.Run("Empty Query Short-Circuits", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for empty query")
		}))

		items, err := service.SearchItems(ctx, "", models.KindTrack)
		if err != nil || items != nil {
			t.Errorf("expected nil results, got %v, %v", items, err)
		}
	})

	t.Run("Nothing Playing", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		_, err := service.CurrentlyPlaying(ctx, models.KindTrack)
		if !errors.Is(err, shared.ErrNoActivePlayback) {
			t.Errorf("expected ErrNoActivePlayback, got %v", err)
		}
	})

	t.Run("Currently Playing Track Carries Progress", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"currently_playing_type":"track","progress_ms":65000,"is_playing":true,
				"item":{"id":"t1","name":"Karma Police",
					"artists":[{"id":"a1","name":"Radiohead"}],
					"album":{"id":"alb1","name":"OK Computer"},
					"duration_ms":264000}}`)
		}))

		item, err := service.CurrentlyPlaying(ctx, models.KindTrack)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		track := item.(*models.Track)
		if track.Progress != "1:05" {
			t.Errorf("expected progress 1:05, got %s", track.Progress)
		}
		if track.Duration != "4:24" {
			t.Errorf("expected duration 4:24, got %s", track.Duration)
		}
	})

	t.Run("Currently Playing Album Follows Href", func(t *testing.T) {
		var albumURL string
		mux := http.NewServeMux()
		mux.HandleFunc("/me/player/currently-playing", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"currently_playing_type":"track","progress_ms":1000,
				"item":{"id":"t1","name":"Airbag",
					"artists":[{"id":"a1","name":"Radiohead"}],
					"album":{"id":"alb1","name":"OK Computer","href":%q},
					"duration_ms":284000}}`, albumURL)
		})
		mux.HandleFunc("/albums/alb1", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"alb1","name":"OK Computer","release_date":"1997-05-21",
				"artists":[{"id":"a1","name":"Radiohead"}],
				"tracks":{"items":[
					{"id":"t1","name":"Airbag","duration_ms":284000},
					{"id":"t2","name":"Paranoid Android","duration_ms":383000}
				]}}`)
		})
		service := newTestService(t, mux)
		albumURL = service.baseURL + "/albums/alb1"

		item, err := service.CurrentlyPlaying(ctx, models.KindAlbum)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		album := item.(*models.Album)
		if len(album.Tracks) != 2 {
			t.Fatalf("expected full track listing, got %d", len(album.Tracks))
		}
		if album.Duration != "11:07" {
			t.Errorf("expected aggregated duration 11:07, got %s", album.Duration)
		}
	})

	t.Run("Podcast Playback Is Unsupported", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"currently_playing_type":"episode","progress_ms":1000,"item":null}`)
		}))

		_, err := service.CurrentlyPlaying(ctx, models.KindTrack)
		if !errors.Is(err, shared.ErrUnsupportedContent) {
			t.Errorf("expected ErrUnsupportedContent, got %v", err)
		}
	})

	t.Run("Error Envelope Message Surfaces", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"status":429,"message":"API rate limit exceeded"}}`)
		}))

		_, err := service.SearchItems(ctx, "anything", models.KindTrack)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "API rate limit exceeded") {
			t.Errorf("expected verbatim message, got %q", err.Error())
		}
	})

	t.Run("Bad Request Means Reconnect", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"status":400,"message":"Only valid bearer authentication supported"}}`)
		}))

		_, err := service.SearchItems(ctx, "anything", models.KindTrack)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Recently Played Deduplicates", func(t *testing.T) {
		service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "20" {
				t.Errorf("expected default limit 20, got %s", got)
			}
			fmt.Fprint(w, `{"items":[
				{"track":{"id":"t1","name":"Airbag","artists":[{"id":"a1","name":"Radiohead"}],
					"album":{"id":"alb1","name":"OK Computer"},"duration_ms":284000},"played_at":"2026-08-28T10:00:00Z"},
				{"track":{"id":"t1","name":"Airbag","artists":[{"id":"a1","name":"Radiohead"}],
					"album":{"id":"alb1","name":"OK Computer"},"duration_ms":284000},"played_at":"2026-08-28T09:55:00Z"},
				{"track":{"id":"t2","name":"Let Down","artists":[{"id":"a1","name":"Radiohead"}],
					"album":{"id":"alb1","name":"OK Computer"},"duration_ms":299000},"played_at":"2026-08-28T09:50:00Z"}
			]}`)
		}))

		items, err := service.RecentlyPlayed(ctx, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 deduplicated items, got %d", len(items))
		}
		if items[0].ItemName() != "Airbag" || items[1].ItemName() != "Let Down" {
			t.Errorf("unexpected order: %s, %s", items[0].ItemName(), items[1].ItemName())
		}
	})
}
