package ui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/notes"
	"github.com/desertthunder/notefm/internal/session"
	"github.com/desertthunder/notefm/internal/shared"
	th "github.com/desertthunder/notefm/internal/testing"
)

func setupModel(t *testing.T, svc *th.MockMusicService) (*Model, *session.Session) {
	t.Helper()

	dir := t.TempDir()
	cfg := shared.DefaultConfig()
	cfg.Vault.FolderPath = dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	mock := th.NewMockVault()
	repo, err := notes.NewRepository(notes.RepositoryOpts{Vault: mock, Config: cfg})
	if err != nil {
		t.Fatal(err)
	}

	subject := &models.Track{
		ID:       "t1",
		Name:     "Airbag",
		Artists:  []string{"Radiohead"},
		Album:    "OK Computer",
		AlbumID:  "alb1",
		Duration: "4:44",
		Progress: "2:05",
	}
	sess, err := session.NewSession(session.SessionOpts{
		Subject: subject,
		Vault:   mock,
		Notes:   repo,
		Config:  cfg,
		Now:     func() time.Time { return time.Date(2026, time.September, 3, 16, 5, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	return NewModel(context.Background(), svc, sess), sess
}

func TestSearchFailure(t *testing.T) {
	t.Run("Failed Search Keeps The Session Open", func(t *testing.T) {
		m, sess := setupModel(t, &th.MockMusicService{SearchErr: errors.New("spotify is down")})

		m.body.SetValue("great opener")
		m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
		if m.view != SearchView {
			t.Fatalf("expected SearchView, got %d", m.view)
		}

		m.Update(searchResultsMsg(nil, errors.New("spotify is down")))

		if m.view != SearchView {
			t.Errorf("expected to stay in SearchView after a failed search, got %d", m.view)
		}
		if sess.State() != session.StateOpen {
			t.Errorf("expected session to remain open, got %d", sess.State())
		}
		if m.body.Value() != "great opener" {
			t.Errorf("expected entry text to survive, got %q", m.body.Value())
		}
		if !strings.Contains(m.View(), "Search failed") {
			t.Error("expected the search view to show a failure notice")
		}
	})

	t.Run("Retry After Failure Reaches The Picker", func(t *testing.T) {
		m, _ := setupModel(t, &th.MockMusicService{})

		m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
		m.Update(searchResultsMsg(nil, errors.New("timeout")))

		results := []models.Item{
			&models.Track{ID: "t9", Name: "Let Down", Artists: []string{"Radiohead"}, Duration: "4:59"},
		}
		m.Update(searchResultsMsg(results, nil))

		if m.view != PickView {
			t.Errorf("expected PickView after a successful retry, got %d", m.view)
		}
		if m.notice != "" {
			t.Errorf("expected the failure notice to clear, got %q", m.notice)
		}
	})
}

func TestChooseSelfReference(t *testing.T) {
	m, sess := setupModel(t, &th.MockMusicService{})

	m.body.SetValue("still typing")
	m.view = PickView
	m.choose(sess.Subject())

	if m.view != ComposeView {
		t.Errorf("expected to land back in ComposeView, got %d", m.view)
	}
	if sess.State() != session.StateOpen {
		t.Errorf("expected session to remain open, got %d", sess.State())
	}
	if m.notice == "" {
		t.Error("expected a notice explaining the rejected pick")
	}
}
