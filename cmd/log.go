package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/session"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/desertthunder/notefm/internal/ui"
	"github.com/desertthunder/notefm/internal/vault"
	"github.com/urfave/cli/v3"
)

// LogTrack opens a logging session for the currently playing track.
func (r *Runner) LogTrack(ctx context.Context, cmd *cli.Command) error {
	return r.logPlaying(ctx, cmd, models.KindTrack)
}

// LogAlbum opens a logging session for the album of the currently playing track.
func (r *Runner) LogAlbum(ctx context.Context, cmd *cli.Command) error {
	return r.logPlaying(ctx, cmd, models.KindAlbum)
}

func (r *Runner) logPlaying(ctx context.Context, cmd *cli.Command, kind models.Kind) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	item, err := svc.CurrentlyPlaying(ctx, kind)
	if err != nil {
		if errors.Is(err, shared.ErrNoActivePlayback) {
			return r.writePlain("Nothing is playing on Spotify right now.\n")
		}
		if errors.Is(err, shared.ErrUnsupportedContent) {
			return r.writePlain("The playing item is not a track or album.\n")
		}
		return err
	}

	return r.runSession(ctx, item, cmd.String("message"))
}

// albumFetcher upgrades a simplified album to its full track listing.
// Satisfied by [services.SpotifyService]; mocks may skip it.
type albumFetcher interface {
	FullAlbum(ctx context.Context, href string) (*models.Album, error)
}

// runSession logs one entry for item, interactively unless message is set.
func (r *Runner) runSession(ctx context.Context, item models.Item, message string) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	// Search results carry simplified albums; the note needs the track list.
	if album, ok := item.(*models.Album); ok && len(album.Tracks) == 0 && album.Href != "" {
		if fetcher, ok := svc.(albumFetcher); ok {
			full, err := fetcher.FullAlbum(ctx, album.Href)
			if err != nil {
				return err
			}
			item = full
		}
	}

	// The TUI owns the terminal, so interactive sessions log to a file.
	logger := r.logger
	if message == "" {
		fileLogger, err := shared.NewFileLogger("./tmp/notefm-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		logger = fileLogger
	}

	sess, v, err := r.openSession(item, logger)
	if err != nil {
		return err
	}

	if message != "" {
		if err := sess.SetText(message); err != nil {
			return err
		}
		note, err := sess.Submit(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Logged to %s\n", note.Path)
	}

	// Keep the vault cache honest while the user may also be editing
	// notes in Obsidian.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := v.Watch(watchCtx); err != nil {
			logger.Warn("vault watcher stopped", "error", err)
		}
	}()

	r.SetLogger(logger)
	model := ui.NewModel(ctx, svc, sess)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		return err
	}
	if note := model.Note(); note != nil {
		return r.writePlain("✓ Logged to %s\n", note.Path)
	}
	return nil
}

// openSession builds the vault-backed dependency chain for one session.
func (r *Runner) openSession(item models.Item, logger *log.Logger) (*session.Session, *vault.FS, error) {
	v, err := r.openVault(logger)
	if err != nil {
		return nil, nil, err
	}

	repo, err := r.noteRepo(v, logger)
	if err != nil {
		return nil, nil, err
	}

	scrobbles, err := r.scrobbleRepo()
	if err != nil {
		return nil, nil, err
	}

	sess, err := session.NewSession(session.SessionOpts{
		Subject:   item,
		Vault:     v,
		Notes:     repo,
		Scrobbles: scrobbles,
		Config:    r.config,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, v, nil
}
