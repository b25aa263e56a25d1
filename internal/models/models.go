package models

import "strings"

// Source identifies which music service a track or playlist came from.
type Source string

const (
	SourceSpotify    Source = "spotify"
	SourceSoundCloud Source = "soundcloud"
)

func (s Source) String() string { return string(s) }

// Valid reports whether the source is one of the two known providers.
func (s Source) Valid() bool {
	return s == SourceSpotify || s == SourceSoundCloud
}

// Track is the normalized track shape used once data crosses into playback.
//
// Both provider representations (Spotify's duration_ms/artist objects,
// SoundCloud's duration/user) are converted to this shape by the services
// package. DurationMS is the canonical unit for the whole application.
type Track struct {
	ID          string // Provider-scoped track identifier
	Title       string
	Artist      string   // Display name (joined artist names or uploader username)
	ArtistIDs   []string // Spotify artist IDs; empty for SoundCloud
	UploaderID  string   // SoundCloud uploader ID; empty for Spotify
	Album       string   // Album name; empty for SoundCloud
	DurationMS  int64
	PlayableRef string // Spotify URI or SoundCloud stream URL
	Permalink   string // Web URL for opening the track externally
	Source      Source
}

// Playlist is the normalized playlist shape. Instances are transient and
// reconstructed on every fetch; they are never persisted.
type Playlist struct {
	ID     string
	Title  string
	Source Source
	Tracks []Track
}

// SharedPlaylist is a synthetic playlist produced by intersecting the two
// providers' playlist collections on normalized title equality. Its track
// sequence is the Spotify tracks followed by the SoundCloud tracks, neither
// interleaved nor deduplicated.
type SharedPlaylist struct {
	Title      string // Casing taken from the Spotify playlist
	Spotify    Playlist
	SoundCloud Playlist
}

// Flatten returns the shared playlist as a single normalized Playlist with the
// combined track sequence.
func (sp SharedPlaylist) Flatten() Playlist {
	tracks := make([]Track, 0, len(sp.Spotify.Tracks)+len(sp.SoundCloud.Tracks))
	tracks = append(tracks, sp.Spotify.Tracks...)
	tracks = append(tracks, sp.SoundCloud.Tracks...)
	return Playlist{
		ID:     "shared:" + NormalizeTitle(sp.Title),
		Title:  sp.Title,
		Tracks: tracks,
	}
}

// NormalizeTitle lowercases and trims a playlist title for intersection
// matching. "My Mix", " my mix " and "MY MIX" normalize equal; punctuation is
// preserved, so "My Mix!" stays distinct from "My Mix".
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
