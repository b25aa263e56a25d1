// Package models defines the normalized entities shared by the catalog,
// playback, and UI layers of the duet player.
//
// Two representations of every track exist upstream: the Spotify shape
// (duration in milliseconds, a list of artist objects, a playback URI) and the
// SoundCloud shape (duration in seconds, a single uploader, a protected stream
// URL). Both are converted to [Track] before entering the playback layer, with
// milliseconds as the canonical duration unit.
//
// [SharedPlaylist] models the best-effort cross-service view: playlists whose
// titles match after case folding and whitespace trimming ([NormalizeTitle]).
// Matching is by title only; there is no audio-fingerprint or metadata
// identity resolution between services.
package models
