package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/notefm/internal/repositories"
	"github.com/desertthunder/notefm/internal/shared"
	"golang.org/x/oauth2"
)

func setupState(t *testing.T) *repositories.StateRepository {
	t.Helper()

	// in-memory sqlite exists per connection
	db, err := shared.OpenStateDB(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return repositories.NewStateRepository(db)
}

func newTestTokenStore(t *testing.T, state *repositories.StateRepository, tokenURL string, now time.Time) *TokenStore {
	t.Helper()

	endpoint := &oauth2.Endpoint{AuthURL: "http://127.0.0.1/authorize", TokenURL: tokenURL}
	store, err := NewTokenStore(TokenStoreOpts{
		State:       state,
		ClientID:    "test_client_id",
		RedirectURI: "http://127.0.0.1:8217/callback",
		Endpoint:    endpoint,
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to create token store: %v", err)
	}
	return store
}

func seedToken(t *testing.T, state *repositories.StateRepository, access, refresh string, expiresAtMS int64) {
	t.Helper()
	for key, value := range map[string]string{
		repositories.KeyAccessToken:  access,
		repositories.KeyRefreshToken: refresh,
		repositories.KeyExpiresAtMS:  strconv.FormatInt(expiresAtMS, 10),
	} {
		if err := state.Set(key, value); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTokenStore(t *testing.T) {
	now := time.Now()

	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewTokenStore(TokenStoreOpts{State: setupState(t)})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("AuthURL Persists Verifier And Carries Challenge", func(t *testing.T) {
		state := setupState(t)
		store := newTestTokenStore(t, state, "http://127.0.0.1/token", now)

		authURL, err := store.AuthURL("csrf_state")
		if err != nil {
			t.Fatalf("failed to build auth URL: %v", err)
		}

		verifier, ok, err := state.Get(repositories.KeyCodeVerifier)
		if err != nil || !ok || verifier == "" {
			t.Fatalf("expected persisted verifier, got %q (present=%v, err=%v)", verifier, ok, err)
		}

		for _, want := range []string{"code_challenge_method=S256", "code_challenge=", "state=csrf_state", "client_id=test_client_id"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL missing %q: %s", want, authURL)
			}
		}
	})

	t.Run("ExchangeCode Without Verifier", func(t *testing.T) {
		store := newTestTokenStore(t, setupState(t), "http://127.0.0.1/token", now)

		_, err := store.ExchangeCode(context.Background(), "some_code")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Stale Token Triggers Exactly One Refresh", func(t *testing.T) {
		refreshCalls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatal(err)
			}
			if got := r.Form.Get("grant_type"); got != "refresh_token" {
				t.Errorf("expected grant_type refresh_token, got %s", got)
			}
			if got := r.Form.Get("refresh_token"); got != "refresh_old" {
				t.Errorf("expected stored refresh token, got %s", got)
			}
			refreshCalls++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"access_new","expires_in":3600,"refresh_token":"refresh_new"}`)
		}))
		defer srv.Close()

		state := setupState(t)
		store := newTestTokenStore(t, state, srv.URL, now)
		seedToken(t, state, "access_old", "refresh_old", now.UnixMilli()-1)

		token, err := store.ValidAccessToken(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "access_new" {
			t.Errorf("expected refreshed token, got %s", token)
		}
		if refreshCalls != 1 {
			t.Errorf("expected exactly one refresh call, got %d", refreshCalls)
		}

		// refreshed token is persisted with the rotated refresh token
		refresh, _, _ := state.Get(repositories.KeyRefreshToken)
		if refresh != "refresh_new" {
			t.Errorf("expected rotated refresh token, got %s", refresh)
		}
		expires, _, _ := state.Get(repositories.KeyExpiresAtMS)
		if want := strconv.FormatInt(now.Add(time.Hour).UnixMilli(), 10); expires != want {
			t.Errorf("expected expiry %s, got %s", want, expires)
		}
	})

	t.Run("Fresh Token Makes No Refresh Call", func(t *testing.T) {
		refreshCalls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			refreshCalls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		state := setupState(t)
		store := newTestTokenStore(t, state, srv.URL, now)
		seedToken(t, state, "access_fresh", "refresh_old", now.UnixMilli()+60000)

		token, err := store.ValidAccessToken(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "access_fresh" {
			t.Errorf("expected stored token, got %s", token)
		}
		if refreshCalls != 0 {
			t.Errorf("expected no refresh calls, got %d", refreshCalls)
		}
	})

	t.Run("Server Keeping Refresh Token Preserves Stored One", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"access_new","expires_in":3600}`)
		}))
		defer srv.Close()

		state := setupState(t)
		store := newTestTokenStore(t, state, srv.URL, now)
		seedToken(t, state, "access_old", "refresh_old", now.UnixMilli()-1)

		if _, err := store.ValidAccessToken(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		refresh, _, _ := state.Get(repositories.KeyRefreshToken)
		if refresh != "refresh_old" {
			t.Errorf("expected refresh token to be kept, got %s", refresh)
		}
	})

	t.Run("Refresh Rejected With 400 Means Not Authenticated", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
		}))
		defer srv.Close()

		state := setupState(t)
		store := newTestTokenStore(t, state, srv.URL, now)
		seedToken(t, state, "access_old", "refresh_revoked", now.UnixMilli()-1)

		_, err := store.ValidAccessToken(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("No Refresh Token Means Not Authenticated", func(t *testing.T) {
		store := newTestTokenStore(t, setupState(t), "http://127.0.0.1/token", now)

		_, err := store.ValidAccessToken(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("IsAuthenticated Is A Local Check", func(t *testing.T) {
		state := setupState(t)
		store := newTestTokenStore(t, state, "http://127.0.0.1/token", now)

		if store.IsAuthenticated() {
			t.Error("expected unauthenticated with empty state")
		}

		// expired access token still counts: no network call is made
		seedToken(t, state, "access_old", "refresh_old", now.UnixMilli()-1)
		if !store.IsAuthenticated() {
			t.Error("expected authenticated with both tokens present")
		}
	})
}
