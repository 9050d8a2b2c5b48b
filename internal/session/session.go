package session

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notefm/internal/formatter"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/notes"
	"github.com/desertthunder/notefm/internal/repositories"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/desertthunder/notefm/internal/vault"
)

// State is the session lifecycle: open until submitted or cancelled, and
// terminal afterwards.
type State int

const (
	StateOpen State = iota
	StateSubmitted
	StateCancelled
)

// Session is one logging flow for one subject item.
//
// The caller feeds it free text and picked references while open, then
// either submits or cancels. Only one session runs at a time; the TUI owns
// it for its whole lifetime.
type Session struct {
	subject    models.Item
	text       string
	state      State
	reconciler *Reconciler

	vault     vault.Vault
	notes     *notes.Repository
	scrobbles *repositories.ScrobbleRepository
	config    *shared.Config
	logger    *log.Logger
	now       func() time.Time
}

// SessionOpts contains configuration options for creating a Session.
type SessionOpts struct {
	Subject   models.Item
	Vault     vault.Vault
	Notes     *notes.Repository
	Scrobbles *repositories.ScrobbleRepository
	Config    *shared.Config
	Logger    *log.Logger
	Now       func() time.Time
}

// NewSession opens a logging session for a subject. The configured vault
// folder must exist; a missing folder fails here, before any interaction.
func NewSession(opts SessionOpts) (*Session, error) {
	if opts.Subject == nil {
		return nil, fmt.Errorf("%w: subject item", shared.ErrMissingArgument)
	}
	if opts.Vault == nil {
		return nil, fmt.Errorf("%w: vault", shared.ErrMissingArgument)
	}
	if opts.Notes == nil {
		return nil, fmt.Errorf("%w: note repository", shared.ErrMissingArgument)
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: config", shared.ErrMissingArgument)
	}
	if err := opts.Config.ValidateVaultPath(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		subject:    opts.Subject,
		state:      StateOpen,
		reconciler: NewReconciler(opts.Subject, opts.Notes, opts.Vault, opts.Config, opts.Logger, opts.Now),
		vault:      opts.Vault,
		notes:      opts.Notes,
		scrobbles:  opts.Scrobbles,
		config:     opts.Config,
		logger:     opts.Logger,
		now:        opts.Now,
	}, nil
}

// Subject returns the item this session logs against.
func (s *Session) Subject() models.Item {
	return s.subject
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Text returns the current free text.
func (s *Session) Text() string {
	return s.text
}

// SetText replaces the free text. The TUI calls this on every edit, so the
// reconciler always settles against what the user actually submitted.
func (s *Session) SetText(text string) error {
	if s.state != StateOpen {
		return shared.ErrSessionClosed
	}
	s.text = text
	return nil
}

// Choose stages a reference to another item and inserts its wikilink at
// the end of the free text.
func (s *Session) Choose(item models.Item) error {
	if s.state != StateOpen {
		return shared.ErrSessionClosed
	}

	linkText, err := s.reconciler.Choose(item)
	if err != nil {
		return err
	}

	s.text += linkText
	return nil
}

// Submit settles references, writes the dated entry to the subject's note,
// and closes the session. The subject's note is opened in the editor
// unless it is already active, then re-read so the cached copy matches
// what was just written.
func (s *Session) Submit(ctx context.Context) (*vault.Note, error) {
	if s.state != StateOpen {
		return nil, shared.ErrSessionClosed
	}

	anchor, err := s.reconciler.Finalize(ctx, s.text)
	if err != nil {
		return nil, err
	}

	note, err := s.notes.GetOrCreate(ctx, s.subject)
	if err != nil {
		return nil, err
	}

	progress := ""
	if track, ok := s.subject.(*models.Track); ok {
		progress = track.Progress
	}

	entry := formatter.LogEntry(s.text, progress, anchor, "", s.now())
	if err := s.vault.Append(ctx, note, entry); err != nil {
		return nil, err
	}

	s.record(note, anchor)

	if s.vault.ActiveNotePath() != note.Path {
		if err := s.vault.OpenNote(note); err != nil {
			s.logger.Warn("failed to open note", "path", note.Path, "error", err)
		}
	}
	if err := s.vault.Refresh(note); err != nil {
		s.logger.Warn("failed to refresh note", "path", note.Path, "error", err)
	}
	s.vault.MoveCursorToEnd()

	s.state = StateSubmitted
	s.logger.Info("entry logged", "subject", s.subject.ItemName(), "path", note.Path)
	return note, nil
}

// Cancel discards the session.
func (s *Session) Cancel() error {
	if s.state != StateOpen {
		return shared.ErrSessionClosed
	}
	s.state = StateCancelled
	return nil
}

// record stores the submitted entry in the local history. History is a
// convenience surface; a storage failure never unwinds a successful log.
func (s *Session) record(note *vault.Note, anchor string) {
	if s.scrobbles == nil {
		return
	}
	scrobble := models.NewScrobble(s.subject, note.Path, anchor, s.text)
	if err := s.scrobbles.Create(scrobble); err != nil {
		s.logger.Warn("failed to record history entry", "error", err)
	}
}
