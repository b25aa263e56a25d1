package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	shared   *models.SharedPlaylist
}

func (i playlistItem) FilterValue() string { return i.playlist.Title }
func (i playlistItem) Title() string       { return i.playlist.Title }
func (i playlistItem) Description() string {
	if i.shared != nil {
		return fmt.Sprintf("%d + %d tracks • on both services",
			len(i.shared.Spotify.Tracks), len(i.shared.SoundCloud.Tracks))
	}
	return fmt.Sprintf("%d tracks • %s", len(i.playlist.Tracks), i.playlist.Source)
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s • %s • %s", desc, shared.FormatDuration(i.track.DurationMS), i.track.Source)
}
