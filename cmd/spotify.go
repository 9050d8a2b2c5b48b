package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/urfave/cli/v3"
)

// parseKind maps a --kind flag value to a [models.Kind].
func parseKind(value string) (models.Kind, error) {
	switch strings.ToLower(value) {
	case "track", "tracks", "t":
		return models.KindTrack, nil
	case "album", "albums", "a":
		return models.KindAlbum, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q (want track or album)", shared.ErrInvalidArgument, value)
	}
}

// Now prints the currently playing track or its album.
func (r *Runner) Now(ctx context.Context, cmd *cli.Command) error {
	kind, err := parseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	item, err := svc.CurrentlyPlaying(ctx, kind)
	if err != nil {
		if errors.Is(err, shared.ErrNoActivePlayback) {
			return r.writePlain("Nothing is playing on Spotify right now.\n")
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(item, true)
	}

	switch v := item.(type) {
	case *models.Track:
		r.writePlain("▶ %s - %s\n", v.DisplayArtists(), v.Name)
		if v.Progress != "" && v.Duration != "" {
			r.writePlain("  %s / %s on %s\n", v.Progress, v.Duration, v.Album)
		}
	case *models.Album:
		r.writePlain("▶ %s - %s (%s)\n", v.DisplayArtists(), v.Name, v.ReleaseDate)
		r.writePlain("  %d tracks, %s\n", len(v.Tracks), v.Duration)
	}

	return nil
}

// Search searches Spotify for tracks or albums matching the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	kind, err := parseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	items, err := svc.SearchItems(ctx, query, kind)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return r.writePlain("No results for %q\n", query)
	}

	if cmd.IsSet("log") {
		item, err := pickItem(items, cmd.Int("log"))
		if err != nil {
			return err
		}
		return r.runSession(ctx, item, cmd.String("message"))
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	for i, item := range items {
		r.writePlain("%2d. %s\n", i+1, describeItem(item))
	}
	return nil
}

// pickItem resolves a 1-based result index.
func pickItem(items []models.Item, index int) (models.Item, error) {
	if index < 1 || index > len(items) {
		return nil, fmt.Errorf("%w: result index %d out of range 1..%d", shared.ErrInvalidArgument, index, len(items))
	}
	return items[index-1], nil
}

// Recent lists the user's recently played tracks, newest first.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	items, err := svc.RecentlyPlayed(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return r.writePlain("No recently played tracks\n")
	}

	if cmd.IsSet("log") {
		item, err := pickItem(items, cmd.Int("log"))
		if err != nil {
			return err
		}
		return r.runSession(ctx, item, cmd.String("message"))
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	for i, item := range items {
		r.writePlain("%2d. %s\n", i+1, describeItem(item))
	}
	return nil
}

func describeItem(item models.Item) string {
	switch v := item.(type) {
	case *models.Track:
		desc := fmt.Sprintf("%s - %s", v.DisplayArtists(), v.Name)
		if v.Duration != "" {
			desc = fmt.Sprintf("%s (%s)", desc, v.Duration)
		}
		return desc
	case *models.Album:
		desc := fmt.Sprintf("%s - %s", v.DisplayArtists(), v.Name)
		if v.ReleaseDate != "" {
			desc = fmt.Sprintf("%s (%s)", desc, v.ReleaseDate)
		}
		return desc
	default:
		return item.ItemName()
	}
}
