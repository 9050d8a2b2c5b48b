package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/notefm/internal/models"
	"github.com/desertthunder/notefm/internal/vault"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchResults MsgKind = iota
	MsgEntrySubmitted
)

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(items []models.Item, err error) Msg {
	return Msg{
		kind: MsgSearchResults,
		data: struct {
			items []models.Item
			err   error
		}{items, err},
	}
}

// entrySubmittedMsg is the constructor for [MsgEntrySubmitted]
func entrySubmittedMsg(note *vault.Note, err error) Msg {
	return Msg{
		kind: MsgEntrySubmitted,
		data: struct {
			note *vault.Note
			err  error
		}{note, err},
	}
}
