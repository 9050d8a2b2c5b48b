package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind discriminates the [Item] variants.
type Kind string

const (
	KindTrack Kind = "Track"
	KindAlbum Kind = "Album"
)

// Item is the sealed interface over [Track] and [Album].
//
// Code that branches on an Item should type-switch over the two pointer
// variants rather than inspect Kind strings.
type Item interface {
	ItemID() string   // ItemID returns the stable identifier, possibly empty for local files
	ItemName() string // ItemName returns the display name
	ItemKind() Kind   // ItemKind returns the variant tag
	ArtistList() []string
	// DisplayArtists returns the joined, ordered artist display form.
	DisplayArtists() string

	item() // sealed
}

var (
	_ Item = (*Track)(nil)
	_ Item = (*Album)(nil)
)

// TrackRef is a minimal reference to a track inside an album's track list.
type TrackRef struct {
	ID   string
	Name string
}

// Track is the normalized form of a Spotify track.
//
// Progress is only set when the track represents the currently playing item.
type Track struct {
	ID        string
	Name      string
	Artists   []string
	Album     string
	AlbumID   string
	AlbumHref string
	Duration  string
	Progress  string
}

func (t *Track) ItemID() string         { return t.ID }
func (t *Track) ItemName() string       { return t.Name }
func (t *Track) ItemKind() Kind         { return KindTrack }
func (t *Track) ArtistList() []string   { return t.Artists }
func (t *Track) DisplayArtists() string { return strings.Join(t.Artists, ", ") }
func (t *Track) item()                  {}

// Album is the normalized form of a Spotify album.
//
// Tracks is empty for simplified albums (search results) until the full
// album has been fetched.
type Album struct {
	ID          string
	Name        string
	Artists     []string
	ReleaseDate string
	Duration    string
	Href        string
	Tracks      []TrackRef
}

func (a *Album) ItemID() string         { return a.ID }
func (a *Album) ItemName() string       { return a.Name }
func (a *Album) ItemKind() Kind         { return KindAlbum }
func (a *Album) ArtistList() []string   { return a.Artists }
func (a *Album) DisplayArtists() string { return strings.Join(a.Artists, ", ") }
func (a *Album) item()                  {}

// FormatDuration renders a millisecond duration as "M:SS", or "H:MM:SS"
// at one hour and beyond. Seconds are always two digits, minutes only when
// hours are shown, hours never padded.
func FormatDuration(ms int64) string {
	totalSeconds := ms / 1000

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours >= 1 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// spotifyIDLength is the length of a base62 Spotify id; derived ids match it
// so note filenames look uniform.
const spotifyIDLength = 22

// DeriveID generates a content-derived identifier for items without a stable
// id (tracks played from local files): a truncated hex SHA-256 of
// "{artists} - {name}".
func DeriveID(artists []string, name string) string {
	plain := fmt.Sprintf("%s - %s", strings.Join(artists, ", "), name)
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])[:spotifyIDLength]
}
