// package models defines the canonical data model for logged music entities.
//
// [Item] is a sealed sum type over [Track] and [Album]: the two playback
// subjects the app knows how to turn into notes. Raw Spotify payloads are
// converted into these types by the services package; everything above that
// layer (notes, sessions, formatting) works on models only.
package models
