package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/notefm/internal/models"
)

var testTrack = &models.Track{
	ID:       "6LgJvl0Xdtc73xB8qOyOtZ",
	Name:     "Paranoid Android",
	Artists:  []string{"Radiohead"},
	Album:    "OK Computer",
	Duration: "6:23",
	Progress: "2:05",
}

func TestWikilink(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		got := Wikilink(testTrack, false, "", false)
		want := "[[6LgJvl0Xdtc73xB8qOyOtZ|Paranoid Android]]"
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("With Artists", func(t *testing.T) {
		got := Wikilink(testTrack, false, "", true)
		want := "[[6LgJvl0Xdtc73xB8qOyOtZ|Radiohead - Paranoid Android]]"
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("Embedded At Anchor", func(t *testing.T) {
		got := Wikilink(testTrack, true, "Ab3dE9", false)
		want := "![[6LgJvl0Xdtc73xB8qOyOtZ#^Ab3dE9|Paranoid Android]]"
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestLogEntry(t *testing.T) {
	at := time.Date(2026, time.September, 3, 16, 5, 0, 0, time.UTC)

	t.Run("With Progress", func(t *testing.T) {
		got := LogEntry("great bridge here", "2:05", "Ab3dE9", "[[t2|Let Down]]", at)
		want := "**3 Sep 2026, 4:05pm**\n\n" +
			"great bridge here ^Ab3dE9\n\n" +
			"*[[t2|Let Down]], 2:05*\n\n" +
			"---\n\n"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("Without Progress Reference Gets Own Line", func(t *testing.T) {
		got := LogEntry("album notes", "", "", "[[t2|Let Down]]", at)
		want := "**3 Sep 2026, 4:05pm**\n\n" +
			"album notes\n\n" +
			"[[t2|Let Down]]\n" +
			"---\n\n"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("No Anchor No Footer", func(t *testing.T) {
		got := LogEntry("just text", "", "", "", at)
		if strings.Contains(got, "^") || strings.Contains(got, "*") {
			t.Errorf("unexpected anchor or footer: %q", got)
		}
		if !strings.HasSuffix(got, "---\n\n") {
			t.Errorf("missing separator: %q", got)
		}
	})

	t.Run("Morning Hours", func(t *testing.T) {
		morning := time.Date(2026, time.September, 3, 9, 7, 0, 0, time.UTC)
		got := LogEntry("x", "", "", "", morning)
		if !strings.Contains(got, "**3 Sep 2026, 9:07am**") {
			t.Errorf("unexpected timestamp: %q", got)
		}
	})
}

func TestDisplayTitle(t *testing.T) {
	duet := &models.Track{
		ID:      "t9",
		Name:    "Some Duet",
		Artists: []string{"First Artist", "Second Artist"},
	}
	if got := DisplayTitle(duet); got != "First Artist, Second Artist - Some Duet" {
		t.Errorf("unexpected title: %s", got)
	}
}
