// Spotify API implementation of [Service]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL     = "https://api.spotify.com/v1"
	defaultSearchLimit = 10
)

type artistPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type imagePayload struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// simplifiedAlbumPayload is the album object embedded in tracks and search
// results: no track listing, but a href pointing at the full album.
type simplifiedAlbumPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []artistPayload `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	Href        string          `json:"href"`
	Images      []imagePayload  `json:"images"`
}

type trackPayload struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Artists    []artistPayload        `json:"artists"`
	Album      simplifiedAlbumPayload `json:"album"`
	DurationMS int64                  `json:"duration_ms"`
}

// albumTrackPayload is the simplified track inside a full album's listing.
type albumTrackPayload struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []artistPayload `json:"artists"`
	DurationMS int64           `json:"duration_ms"`
}

type albumPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []artistPayload `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	Href        string          `json:"href"`
	Tracks      struct {
		Items []albumTrackPayload `json:"items"`
	} `json:"tracks"`
}

// playbackPayload is the /me/player/currently-playing response body.
// Item is null and currently_playing_type is "episode"/"ad"/"unknown" for
// non-track content.
type playbackPayload struct {
	Item                 *trackPayload `json:"item"`
	ProgressMS           int64         `json:"progress_ms"`
	IsPlaying            bool          `json:"is_playing"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
}

type searchPayload struct {
	Tracks *struct {
		Items []trackPayload `json:"items"`
	} `json:"tracks"`
	Albums *struct {
		Items []simplifiedAlbumPayload `json:"items"`
	} `json:"albums"`
}

type recentlyPlayedPayload struct {
	Items []struct {
		Track    trackPayload `json:"track"`
		PlayedAt string       `json:"played_at"`
	} `json:"items"`
}

// errorEnvelope is Spotify's JSON error body.
type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [Service] against the Spotify Web API.
//
// Stateless per call: no caching and no retries, errors surface to the
// caller immediately. Every request waits on a client-side rate limiter and
// obtains a valid bearer token from the [TokenStore], which may trigger a
// refresh.
type SpotifyService struct {
	tokens  *TokenStore
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
	baseURL string
}

// SpotifyServiceOpts contains configuration options for creating a SpotifyService.
type SpotifyServiceOpts struct {
	Tokens     *TokenStore
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *log.Logger
	BaseURL    string // override for tests
}

// NewSpotifyService creates a SpotifyService with the provided options.
func NewSpotifyService(opts SpotifyServiceOpts) (*SpotifyService, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token store", shared.ErrMissingArgument)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(10), 5)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}

	return &SpotifyService{
		tokens:  opts.Tokens,
		client:  opts.HTTPClient,
		limiter: opts.Limiter,
		logger:  opts.Logger,
		baseURL: opts.BaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// get performs an authenticated GET. endpoint may be a path under the base
// URL or an absolute href as returned by the API. Returns the response
// status; a 204 leaves result untouched.
func (s *SpotifyService) get(ctx context.Context, endpoint string, result any) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	token, err := s.tokens.ValidAccessToken(ctx)
	if err != nil {
		return 0, err
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, apiError(resp.StatusCode, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// apiError maps Spotify's error envelope onto the local taxonomy: a 400
// means the session is no longer authorized, anything else passes the
// server's message through verbatim.
func apiError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Status != 0 {
		if envelope.Error.Status == http.StatusBadRequest {
			return fmt.Errorf("%w: please connect your Spotify account", shared.ErrNotAuthenticated)
		}
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, envelope.Error.Message)
	}
	if status == http.StatusBadRequest {
		return fmt.Errorf("%w: please connect your Spotify account", shared.ErrNotAuthenticated)
	}
	return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, status)
}

// SearchItems searches for tracks or albums matching query.
func (s *SpotifyService) SearchItems(ctx context.Context, query string, kind models.Kind) ([]models.Item, error) {
	if query == "" {
		return nil, nil
	}

	searchType := "track"
	if kind == models.KindAlbum {
		searchType = "album"
	}

	params := url.Values{
		"q":     {query},
		"type":  {searchType},
		"limit": {fmt.Sprint(defaultSearchLimit)},
	}

	var payload searchPayload
	if _, err := s.get(ctx, "/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	var items []models.Item
	switch kind {
	case models.KindTrack:
		if payload.Tracks != nil {
			for _, raw := range payload.Tracks.Items {
				items = append(items, NormalizeTrack(raw))
			}
		}
	case models.KindAlbum:
		if payload.Albums != nil {
			for _, raw := range payload.Albums.Items {
				items = append(items, NormalizeSimplifiedAlbum(raw))
			}
		}
	}

	return items, nil
}

// CurrentlyPlaying returns the playing item as the requested kind.
//
// The player endpoint answers 204 when nothing is playing; that is a
// distinct condition, not an API failure. When an album is requested the
// playing track's album href is followed to pick up the full track listing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context, kind models.Kind) (models.Item, error) {
	var payload playbackPayload
	status, err := s.get(ctx, "/me/player/currently-playing", &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, shared.ErrNoActivePlayback
	}

	item, err := NormalizePlaybackState(payload, kind)
	if err != nil {
		return nil, err
	}

	if album, ok := item.(*models.Album); ok && album.Href != "" {
		full, err := s.FullAlbum(ctx, album.Href)
		if err != nil {
			return nil, err
		}
		return full, nil
	}

	return item, nil
}

// FullAlbum fetches a complete album, track listing included, from its href.
func (s *SpotifyService) FullAlbum(ctx context.Context, href string) (*models.Album, error) {
	var payload albumPayload
	if _, err := s.get(ctx, href, &payload); err != nil {
		return nil, err
	}
	return NormalizeAlbum(payload), nil
}

// RecentlyPlayed returns the user's recently played tracks, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var payload recentlyPlayedPayload
	if _, err := s.get(ctx, fmt.Sprintf("/me/player/recently-played?limit=%d", limit), &payload); err != nil {
		return nil, err
	}

	return NormalizeRecentlyPlayed(payload), nil
}
