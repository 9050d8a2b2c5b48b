// package repositories provides the SQLite persistence layer.
//
// Two stores live here: [StateRepository], a key-value store for the OAuth
// token material and PKCE verifier, and [ScrobbleRepository], an append-only
// history of submitted log actions.
package repositories
