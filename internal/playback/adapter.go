package playback

import (
	"context"

	"github.com/duetfm/duet/internal/models"
)

// Adapter drives playback for a single source. All positions and durations
// cross this boundary in milliseconds; adapters whose native unit differs
// convert internally.
type Adapter interface {
	// Play starts the track, optionally from a resume offset. The adapter
	// must be fully stopped or paused before Play is called with a track
	// from another adapter's source; the coordinator guarantees this.
	Play(ctx context.Context, track models.Track, resumeOffsetMS int64) error

	// Pause halts playback and returns the position at which it stopped.
	// A capture failure is reported alongside a zero position so the
	// caller can fall back to its last known value.
	Pause(ctx context.Context) (capturedMS int64, err error)

	// Seek moves the playhead. The coordinator clamps before calling.
	Seek(ctx context.Context, positionMS int64) error

	// Position reports the playhead, the track duration when the adapter
	// knows it (0 otherwise), and whether the track has run out.
	Position(ctx context.Context) (posMS, durMS int64, ended bool, err error)

	Source() models.Source
}

// NoticeKind classifies a playback failure for display.
type NoticeKind int

const (
	// NoticeBackendError covers control calls the provider rejected.
	NoticeBackendError NoticeKind = iota
	// NoticeUnsupported means this build cannot decode audio locally.
	NoticeUnsupported
	// NoticeAutoplayBlocked means the audio device refused to start.
	NoticeAutoplayBlocked
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeUnsupported:
		return "unsupported"
	case NoticeAutoplayBlocked:
		return "autoplay blocked"
	default:
		return "backend error"
	}
}

// Notice is a non-fatal, dismissible playback failure. It stays visible
// until the user dismisses it or a later play succeeds.
type Notice struct {
	ID      string
	Kind    NoticeKind
	Message string
	Track   string
}
