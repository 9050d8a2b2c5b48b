package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/services"
	"github.com/desertthunder/notefm/internal/session"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/desertthunder/notefm/internal/vault"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ComposeView ViewState = iota
	SearchView
	PickView
	ResultView
)

// Model represents the TUI application state for a single logging session.
type Model struct {
	ctx        context.Context
	view       ViewState
	service    services.Service
	session    *session.Session
	width      int
	height     int
	body       textarea.Model
	query      textinput.Model
	searchKind models.Kind
	resultList list.Model
	note       *vault.Note
	err        error
	notice     string
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model for logging an entry against the
// session's subject.
func NewModel(ctx context.Context, service services.Service, sess *session.Session) *Model {
	body := textarea.New()
	body.Placeholder = "What do you want to say about it?"
	body.ShowLineNumbers = false
	body.Focus()

	query := textinput.New()
	query.Placeholder = "Search Spotify..."

	return &Model{
		ctx:        ctx,
		view:       ComposeView,
		service:    service,
		session:    sess,
		body:       body,
		query:      query,
		searchKind: models.KindTrack,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Note returns the note the entry was written to, once submitted.
func (m *Model) Note() *vault.Note { return m.note }

// Err returns the terminal error, if the session ended with one.
func (m *Model) Err() error { return m.err }

// Init starts the cursor blinking in the compose view.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.SetWidth(msg.Width - 4)
		m.body.SetHeight(min(msg.Height-8, 10))
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ComposeView:
			return m.handleComposeKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case PickView:
			return m.handlePickKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleAppMsg(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleAppMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchResults:
		data := msg.data.(struct {
			items []models.Item
			err   error
		})
		if data.err != nil {
			// The session stays open on a failed search so the user can
			// retry or back out without losing the entry text.
			m.notice = fmt.Sprintf("Search failed: %v", data.err)
			m.view = SearchView
			return m, nil
		}
		m.notice = ""
		items := make([]list.Item, len(data.items))
		for i, it := range data.items {
			items[i] = resultItem{item: it}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("%ss matching '%s'", m.searchKind, m.query.Value())
		m.resultList.SetSize(m.width-4, m.height-8)
		m.view = PickView
		return m, nil

	case MsgEntrySubmitted:
		data := msg.data.(struct {
			note *vault.Note
			err  error
		})
		m.note = data.note
		m.err = data.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ComposeView:
		return m.renderCompose()
	case SearchView:
		return m.renderSearch()
	case PickView:
		return m.renderPick()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.notice = ""
		m.query.SetValue("")
		m.query.Focus()
		m.body.Blur()
		m.view = SearchView
		return m, textinput.Blink
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.backToCompose()
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.searchKind == models.KindTrack {
			m.searchKind = models.KindAlbum
		} else {
			m.searchKind = models.KindTrack
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.query.Value() != "" {
			m.notice = ""
			return m, m.search()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		selected := m.resultList.SelectedItem()
		if selected != nil {
			if res, ok := selected.(resultItem); ok {
				m.choose(res.item)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ComposeView:
		m.body, cmd = m.body.Update(msg)
	case SearchView:
		m.query, cmd = m.query.Update(msg)
	case PickView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

// choose stages the reference and mirrors the session's text, which now
// carries the inserted wikilink, back into the editor.
func (m *Model) choose(item models.Item) {
	if err := m.session.SetText(m.body.Value()); err != nil {
		m.err = err
		m.view = ResultView
		return
	}
	if err := m.session.Choose(item); err != nil {
		if errors.Is(err, shared.ErrSelfReference) {
			m.notice = "That is the note being logged to; pick another."
			m.backToCompose()
			return
		}
		m.err = err
		m.view = ResultView
		return
	}
	m.body.SetValue(m.session.Text())
	m.body.CursorEnd()
	m.backToCompose()
}

func (m *Model) backToCompose() {
	m.query.Blur()
	m.body.Focus()
	m.view = ComposeView
}

func (m *Model) cancel() {
	// Already-closed sessions are fine to cancel again on the way out.
	_ = m.session.Cancel()
}

func (m *Model) search() tea.Cmd {
	query := m.query.Value()
	kind := m.searchKind
	return func() tea.Msg {
		items, err := m.service.SearchItems(m.ctx, query, kind)
		return searchResultsMsg(items, err)
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.SetText(m.body.Value()); err != nil {
			return entrySubmittedMsg(nil, err)
		}
		note, err := m.session.Submit(m.ctx)
		return entrySubmittedMsg(note, err)
	}
}

func (m *Model) renderCompose() string {
	subject := m.session.Subject()
	title := styles.title.Render(fmt.Sprintf("Logging '%s - %s'", subject.DisplayArtists(), subject.ItemName()))

	helpKeys := []key.Binding{m.keys.search, m.keys.submit, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.body.View(), m.renderNotice(), helpView)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render(fmt.Sprintf("Link a note (%ss)", m.searchKind))

	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.query.View(), m.renderNotice(), helpView)
}

func (m *Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	return styles.warn.Render(m.notice)
}

func (m *Model) renderPick() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Logging failed: %v\n\nPress q to quit", m.err))
	}

	if m.note == nil {
		return styles.warn.Render("Session cancelled\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Entry Logged")
	info := fmt.Sprintf("\nNote: %s\n", m.note.Path)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
