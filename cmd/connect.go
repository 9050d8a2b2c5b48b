package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/notefm/internal/repositories"
	"github.com/desertthunder/notefm/internal/server"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConnectTimeout = 2 * time.Minute

// Connect runs the Spotify authorization code flow with PKCE.
//
// A loopback HTTP server on the configured redirect port receives the
// callback; the browser is pointed at the authorization URL and the
// command blocks until the callback lands or the timeout expires.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	tokens, err := r.tokenStore()
	if err != nil {
		return err
	}

	if cmd.Bool("status") {
		if tokens.IsAuthenticated() {
			return r.writePlain("✓ Connected to Spotify\n")
		}
		return r.writePlain("✗ Not connected; run 'notefm connect'\n")
	}

	if cmd.Bool("forget") {
		return r.forgetTokens()
	}

	stateToken := shared.GenerateID()
	authURL, err := tokens.AuthURL(stateToken)
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(tokens, stateToken)
	router := server.NewBasicRouter()
	router.Handler(handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", r.config.Credentials.Spotify.RedirectPort),
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	r.logger.Info("waiting for Spotify authorization", "port", r.config.Credentials.Spotify.RedirectPort)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		r.logger.Info("connected to Spotify")
		return r.writePlain("✓ Connected to Spotify\n")
	case err := <-errChan:
		return fmt.Errorf("callback server failed: %w", err)
	case <-time.After(cmd.Duration("timeout")):
		return fmt.Errorf("%w: timed out waiting for authorization", shared.ErrAuthFailed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forgetTokens discards all persisted OAuth state.
func (r *Runner) forgetTokens() error {
	db, err := r.database()
	if err != nil {
		return err
	}

	state := repositories.NewStateRepository(db)
	for _, key := range []string{
		repositories.KeyAccessToken,
		repositories.KeyRefreshToken,
		repositories.KeyExpiresAtMS,
		repositories.KeyCodeVerifier,
	} {
		if err := state.Delete(key); err != nil {
			return err
		}
	}

	r.logger.Info("stored tokens discarded")
	return r.writePlain("✓ Disconnected from Spotify\n")
}
