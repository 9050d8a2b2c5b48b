// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives a single logging session against a playing track or album:
//  1. [ComposeView] : Write the free text for the entry
//  2. [SearchView] : Search Spotify for a track or album to reference
//  3. [PickView] : Select a result, inserting its wikilink into the text
//  4. [ResultView] : Display the note the entry was written to
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// All session semantics (reference staging, settlement, the vault write) live in [session.Session]; the model only mirrors
// the session's text into the editor after each staged reference.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, ctrl+f, ctrl+s) with contextual help displayed via charmbracelet/bubbles/help.
package ui
