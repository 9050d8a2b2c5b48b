// package notes turns normalized items into vault notes and keeps the
// links between track and album notes coherent in both directions.
package notes

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notefm/internal/formatter"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/desertthunder/notefm/internal/vault"
)

// Repository creates and links notes for tracks and albums.
//
// Creation is idempotent per item id: an existing note is returned as is
// and its frontmatter is never rewritten. A per-id lock closes the
// check-then-create window when two goroutines log the same item.
type Repository struct {
	vault  vault.Vault
	config *shared.Config
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// RepositoryOpts contains configuration options for creating a Repository.
type RepositoryOpts struct {
	Vault  vault.Vault
	Config *shared.Config
	Logger *log.Logger
}

// NewRepository creates a Repository with the provided options.
func NewRepository(opts RepositoryOpts) (*Repository, error) {
	if opts.Vault == nil {
		return nil, fmt.Errorf("%w: vault", shared.ErrMissingArgument)
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: config", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Repository{
		vault:  opts.Vault,
		config: opts.Config,
		logger: opts.Logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// NotePath returns the vault-relative path of the note for an item id.
func (r *Repository) NotePath(id string) string {
	return id + ".md"
}

// lockFor returns the creation lock for an item id.
func (r *Repository) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locks[id]; !ok {
		r.locks[id] = &sync.Mutex{}
	}
	return r.locks[id]
}

// GetOrCreate returns the note for an item, creating it when absent.
//
// A track without an id (local file playback) gets one derived from its
// artists and name, written back onto the track so later calls agree.
func (r *Repository) GetOrCreate(ctx context.Context, item models.Item) (*vault.Note, error) {
	if track, ok := item.(*models.Track); ok && track.ID == "" {
		track.ID = models.DeriveID(track.Artists, track.Name)
	}

	id := item.ItemID()
	if id == "" {
		return nil, fmt.Errorf("%w: item has no id", shared.ErrInvalidArgument)
	}

	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if note := r.vault.NoteByPath(r.NotePath(id)); note != nil {
		return note, nil
	}

	switch v := item.(type) {
	case *models.Track:
		return r.createTrack(ctx, v)
	case *models.Album:
		return r.createAlbum(ctx, v)
	default:
		return nil, fmt.Errorf("%w: unknown item kind %q", shared.ErrInvalidArgument, item.ItemKind())
	}
}

func (r *Repository) createTrack(ctx context.Context, track *models.Track) (*vault.Note, error) {
	// When the album already has a note the track's album field becomes a
	// link to it, and the album's track listing links back.
	albumField := track.Album
	if track.AlbumID != "" {
		if albumNote := r.vault.NoteByPath(r.NotePath(track.AlbumID)); albumNote != nil {
			albumField = fmt.Sprintf("[[%s|%s]]", track.AlbumID, track.Album)
			r.linkTrackInAlbum(ctx, albumNote, track)
		}
	}

	note, err := r.vault.CreateNote(ctx, r.NotePath(track.ID), "")
	if err != nil {
		return nil, err
	}

	r.mutateSoft(ctx, note, func(fm *models.Frontmatter) {
		fm.Set("name", track.Name)
		fm.Set("artists", track.Artists)
		if r.config.Frontmatter.ShowType {
			fm.Set("type", string(models.KindTrack))
		}
		fm.Set("album", albumField)
		if r.config.Frontmatter.ShowDuration {
			fm.Set("duration", track.Duration)
		}
		if r.config.Frontmatter.ShowTags {
			fm.Set("tags", "")
		}
		fm.Set("aliases", formatter.Alias(track, r.config.Links.AliasShowArtists))
	})

	r.logger.Info("track note created", "id", track.ID, "name", track.Name)
	return note, nil
}

func (r *Repository) createAlbum(ctx context.Context, album *models.Album) (*vault.Note, error) {
	note, err := r.vault.CreateNote(ctx, r.NotePath(album.ID), "")
	if err != nil {
		return nil, err
	}

	if r.config.Vault.PerTrackNotesForAlbums {
		for _, ref := range album.Tracks {
			if ref.ID == "" {
				continue
			}
			track := &models.Track{
				ID:      ref.ID,
				Name:    ref.Name,
				Artists: album.Artists,
				Album:   album.Name,
				AlbumID: album.ID,
			}
			if _, err := r.GetOrCreate(ctx, track); err != nil {
				r.logger.Warn("failed to create track note for album", "track", ref.Name, "error", err)
			}
		}
	}

	r.mutateSoft(ctx, note, func(fm *models.Frontmatter) {
		fm.Set("name", album.Name)
		fm.Set("artists", album.Artists)
		if r.config.Frontmatter.ShowType {
			fm.Set("type", string(models.KindAlbum))
		}
		if r.config.Frontmatter.ShowReleaseDate {
			fm.Set("release date", album.ReleaseDate)
		}
		if r.config.Frontmatter.ShowDuration {
			fm.Set("duration", album.Duration)
		}
		fm.Set("tracks", r.trackListing(album))
		if r.config.Frontmatter.ShowTags {
			fm.Set("tags", "")
		}
		fm.Set("aliases", formatter.Alias(album, r.config.Links.AliasShowArtists))
	})

	// Tracks logged before the album got a note now point back to it.
	for _, ref := range album.Tracks {
		if ref.ID == "" {
			continue
		}
		if trackNote := r.vault.NoteByPath(r.NotePath(ref.ID)); trackNote != nil {
			r.linkAlbumInTrack(ctx, trackNote, album)
		}
	}

	r.logger.Info("album note created", "id", album.ID, "name", album.Name)
	return note, nil
}

// trackListing renders the album's tracks frontmatter list: a wikilink when
// the track has a note, the plain name otherwise.
func (r *Repository) trackListing(album *models.Album) []string {
	listing := make([]string, 0, len(album.Tracks))
	for _, ref := range album.Tracks {
		if ref.ID != "" && r.vault.NoteByPath(r.NotePath(ref.ID)) != nil {
			listing = append(listing, fmt.Sprintf("[[%s|%s]]", ref.ID, ref.Name))
		} else {
			listing = append(listing, ref.Name)
		}
	}
	return listing
}

// linkTrackInAlbum replaces the plain track name in an album's tracks list
// with a wikilink to the track's new note.
func (r *Repository) linkTrackInAlbum(ctx context.Context, albumNote *vault.Note, track *models.Track) {
	r.mutateSoft(ctx, albumNote, func(fm *models.Frontmatter) {
		tracks, ok := fm.GetStringList("tracks")
		if !ok {
			return
		}
		for i, entry := range tracks {
			if entry == track.Name {
				tracks[i] = fmt.Sprintf("[[%s|%s]]", track.ID, track.Name)
				fm.Set("tracks", tracks)
				return
			}
		}
	})
}

// linkAlbumInTrack points an existing track note's album field at the
// album's new note, unless the user already made it a link.
func (r *Repository) linkAlbumInTrack(ctx context.Context, trackNote *vault.Note, album *models.Album) {
	r.mutateSoft(ctx, trackNote, func(fm *models.Frontmatter) {
		current, ok := fm.GetString("album")
		if ok && current != album.Name {
			return
		}
		fm.Set("album", fmt.Sprintf("[[%s|%s]]", album.ID, album.Name))
	})
}

// mutateSoft applies a frontmatter mutation and downgrades any failure to
// a warning. A half-linked vault is always preferable to a failed log.
func (r *Repository) mutateSoft(ctx context.Context, note *vault.Note, fn vault.MutateFunc) {
	if err := r.vault.MutateFrontmatter(ctx, note, fn); err != nil {
		r.logger.Warn("frontmatter update failed", "path", note.Path, "error", err)
	}
}
