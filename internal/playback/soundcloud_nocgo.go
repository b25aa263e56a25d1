//go:build !((linux && cgo) || windows || darwin)

package playback

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
)

// AudioAvailable indicates whether local audio decoding is supported in
// this build. Decoding needs cgo for the native sound libraries.
const AudioAvailable = false

// SoundCloudAdapter is a stub for builds without audio support. Play always
// fails with ErrPlaybackUnsupported, which the coordinator turns into an
// "opened externally" notice plus a browser launch.
type SoundCloudAdapter struct {
	svc    *services.SoundCloudService
	logger *log.Logger
}

// NewSoundCloudAdapter creates the stub adapter.
func NewSoundCloudAdapter(svc *services.SoundCloudService, logger *log.Logger) *SoundCloudAdapter {
	return &SoundCloudAdapter{svc: svc, logger: logger}
}

func (a *SoundCloudAdapter) Source() models.Source { return models.SourceSoundCloud }

func (a *SoundCloudAdapter) Play(ctx context.Context, track models.Track, resumeOffsetMS int64) error {
	return shared.ErrPlaybackUnsupported
}

func (a *SoundCloudAdapter) Pause(ctx context.Context) (int64, error) { return 0, nil }

func (a *SoundCloudAdapter) Seek(ctx context.Context, positionMS int64) error {
	return shared.ErrPlaybackUnsupported
}

func (a *SoundCloudAdapter) Position(ctx context.Context) (int64, int64, bool, error) {
	return 0, 0, false, nil
}
