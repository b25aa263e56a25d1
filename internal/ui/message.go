package ui

import (
	"time"

	"github.com/duetfm/duet/internal/models"
)

// playlistsFetchedMsg delivers one library tab's playlist summaries.
type playlistsFetchedMsg struct {
	tab       libraryTab
	playlists []models.Playlist
	shared    []models.SharedPlaylist
	err       error
}

// tracksFetchedMsg delivers the full track list for a selected playlist.
type tracksFetchedMsg struct {
	playlist *models.Playlist
	err      error
}

// tickMsg drives the transport bar refresh from coordinator snapshots.
type tickMsg time.Time

// sessionInvalidMsg reports that a provider's credential failed
// revalidation; the view falls back to login for that provider only.
type sessionInvalidMsg struct {
	provider models.Source
}
