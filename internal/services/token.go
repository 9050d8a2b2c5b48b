package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/notefm/internal/repositories"
	"github.com/desertthunder/notefm/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// scopes cover reading the player state and recent history.
	spotifyScopes = "user-read-currently-playing user-read-recently-played"
)

// Token holds OAuth2 token material as persisted in the local state store.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAtMS  int64
}

// Stale reports whether the access token has expired at the given instant.
func (t Token) Stale(now time.Time) bool {
	return now.UnixMilli() >= t.ExpiresAtMS
}

// TokenStore owns the PKCE token lifecycle: authorize URL generation,
// code exchange, refresh-on-stale, and persistence.
//
// There is exactly one TokenStore per process, constructed at startup and
// passed to everything that needs authorization.
type TokenStore struct {
	state  *repositories.StateRepository
	config *oauth2.Config
	client *http.Client
	logger *log.Logger
	now    func() time.Time
}

// TokenStoreOpts contains configuration options for creating a TokenStore.
type TokenStoreOpts struct {
	State       *repositories.StateRepository
	ClientID    string
	RedirectURI string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Now         func() time.Time
	// Endpoint overrides the Spotify account endpoints, for tests.
	Endpoint *oauth2.Endpoint
}

// NewTokenStore creates a TokenStore with the provided options.
func NewTokenStore(opts TokenStoreOpts) (*TokenStore, error) {
	if opts.State == nil {
		return nil, fmt.Errorf("%w: state repository", shared.ErrMissingArgument)
	}
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrInvalidConfig)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	endpoint := oauth2.Endpoint{AuthURL: spotifyAuthURL, TokenURL: spotifyTokenURL}
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}

	// Public PKCE client: no client secret.
	config := &oauth2.Config{
		ClientID:    opts.ClientID,
		RedirectURL: opts.RedirectURI,
		Scopes:      strings.Fields(spotifyScopes),
		Endpoint:    endpoint,
	}

	return &TokenStore{
		state:  opts.State,
		config: config,
		client: opts.HTTPClient,
		logger: opts.Logger,
		now:    opts.Now,
	}, nil
}

// AuthURL generates a fresh PKCE verifier, persists it for the pending
// exchange, and returns the authorization URL carrying the S256 challenge.
func (s *TokenStore) AuthURL(stateToken string) (string, error) {
	verifier := oauth2.GenerateVerifier()
	if err := s.state.Set(repositories.KeyCodeVerifier, verifier); err != nil {
		return "", fmt.Errorf("failed to persist code verifier: %w", err)
	}
	return s.config.AuthCodeURL(stateToken, oauth2.S256ChallengeOption(verifier)), nil
}

// ExchangeCode trades an authorization code for tokens, pairing it with the
// persisted PKCE verifier, and persists the result.
//
// Used exactly once per connect flow; the verifier is discarded afterwards.
func (s *TokenStore) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	verifier, ok, err := s.state.Get(repositories.KeyCodeVerifier)
	if err != nil {
		return nil, fmt.Errorf("failed to read code verifier: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: code verifier not found, re-run connect", shared.ErrAuthFailed)
	}

	tok, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, asAuthError(err)
	}

	token := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAtMS:  tok.Expiry.UnixMilli(),
	}

	if err := s.persist(token); err != nil {
		return nil, err
	}
	if err := s.state.Delete(repositories.KeyCodeVerifier); err != nil {
		s.logger.Warn("failed to clear code verifier", "error", err)
	}

	s.logger.Info("spotify account connected", "expires_at", time.UnixMilli(token.ExpiresAtMS))
	return token, nil
}

// ValidAccessToken returns an access token that is valid right now,
// refreshing the persisted token first when it has gone stale.
func (s *TokenStore) ValidAccessToken(ctx context.Context) (string, error) {
	token, err := s.load()
	if err != nil {
		return "", err
	}
	if token.RefreshToken == "" {
		return "", fmt.Errorf("%w: please connect your Spotify account", shared.ErrNotAuthenticated)
	}

	if token.AccessToken != "" && !token.Stale(s.now()) {
		return token.AccessToken, nil
	}

	s.logger.Debug("access token stale, refreshing", "expired_at", time.UnixMilli(token.ExpiresAtMS))

	refreshed, err := s.refresh(ctx, token.RefreshToken)
	if err != nil {
		return "", err
	}

	if err := s.persist(refreshed); err != nil {
		return "", err
	}

	return refreshed.AccessToken, nil
}

// IsAuthenticated reports whether both an access and refresh token exist
// locally. It never makes a network call, so it can go stale if the user
// revokes access on the Spotify side.
func (s *TokenStore) IsAuthenticated() bool {
	_, hasAccess, err := s.state.Get(repositories.KeyAccessToken)
	if err != nil {
		return false
	}
	_, hasRefresh, err := s.state.Get(repositories.KeyRefreshToken)
	if err != nil {
		return false
	}
	return hasAccess && hasRefresh
}

// tokenResponse is the token endpoint's JSON body. refresh_token may be
// omitted on refresh; the stored one is kept in that case.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// refresh calls the token endpoint with grant_type=refresh_token.
//
// The staleness rule is exactly now >= expires_at, so the refresh request
// is built by hand instead of going through [oauth2.TokenSource], which
// refreshes early inside its own expiry delta.
func (s *TokenStore) refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {s.config.ClientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: refresh rejected, please reconnect", shared.ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAuthFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", shared.ErrAuthFailed, err)
	}

	token := &Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAtMS:  s.now().Add(time.Duration(payload.ExpiresIn) * time.Second).UnixMilli(),
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	return token, nil
}

// load reads the persisted token; absent keys leave zero fields.
func (s *TokenStore) load() (Token, error) {
	var token Token

	access, _, err := s.state.Get(repositories.KeyAccessToken)
	if err != nil {
		return token, err
	}
	refresh, _, err := s.state.Get(repositories.KeyRefreshToken)
	if err != nil {
		return token, err
	}
	expires, ok, err := s.state.Get(repositories.KeyExpiresAtMS)
	if err != nil {
		return token, err
	}

	token.AccessToken = access
	token.RefreshToken = refresh
	if ok {
		if ms, err := strconv.ParseInt(expires, 10, 64); err == nil {
			token.ExpiresAtMS = ms
		}
	}

	return token, nil
}

func (s *TokenStore) persist(token *Token) error {
	if err := s.state.Set(repositories.KeyAccessToken, token.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := s.state.Set(repositories.KeyRefreshToken, token.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	if err := s.state.Set(repositories.KeyExpiresAtMS, strconv.FormatInt(token.ExpiresAtMS, 10)); err != nil {
		return fmt.Errorf("failed to persist token expiry: %w", err)
	}
	return nil
}

// asAuthError maps oauth2 retrieval failures onto the local taxonomy:
// a 400 from the token endpoint means the grant is bad and the user must
// reconnect; everything else is a generic auth failure.
func asAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
		retrieveErr.Response.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
}
