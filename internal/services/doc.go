// package services talks to the Spotify Web API.
//
// [TokenStore] owns the OAuth2 PKCE token lifecycle over the local state
// store; [SpotifyService] wraps the search and player endpoints and returns
// normalized [models.Item] values. Normalization itself is pure and lives in
// normalize.go.
package services
