package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSpotify Phase = iota
	FetchSoundCloud
	Match
	LoadTracks
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchSpotify:
		return "fetch_spotify"
	case FetchSoundCloud:
		return "fetch_soundcloud"
	case Match:
		return "match"
	case LoadTracks:
		return "load_tracks"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func fetchProviderUpdate(phase Phase, step, total int) ProgressUpdate {
	provider := "Spotify"
	if phase == FetchSoundCloud {
		provider = "SoundCloud"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching playlists from %s...", provider),
	}
}

func matchedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Match,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Matched %d shared playlist(s) by title", count),
		Data:    count,
	}
}

func loadTracksUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loading tracks: %s...", step, total, title),
	}
}

func exportingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, name, path),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
