//go:build (linux && cgo) || windows || darwin

package playback

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
)

// AudioAvailable indicates whether local audio decoding is supported in
// this build.
const AudioAvailable = true

// SoundCloudAdapter fetches the authenticated stream into memory, decodes
// it, and drives it through the local speaker. Native progress is measured
// in samples; every public method converts to milliseconds.
type SoundCloudAdapter struct {
	svc    *services.SoundCloudService
	logger *log.Logger

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl

	ended atomic.Bool
}

// NewSoundCloudAdapter creates an adapter over an authenticated service.
func NewSoundCloudAdapter(svc *services.SoundCloudService, logger *log.Logger) *SoundCloudAdapter {
	return &SoundCloudAdapter{
		svc:        svc,
		logger:     logger,
		sampleRate: beep.SampleRate(44100),
	}
}

func (a *SoundCloudAdapter) Source() models.Source { return models.SourceSoundCloud }

// Play downloads and decodes the track, releases whatever was playing
// before, and starts the new streamer from the resume offset.
func (a *SoundCloudAdapter) Play(ctx context.Context, track models.Track, resumeOffsetMS int64) error {
	if track.PlayableRef == "" {
		return fmt.Errorf("%w: track %s has no stream", shared.ErrTrackNotFound, track.ID)
	}

	data, err := a.svc.FetchStream(ctx, track.PlayableRef)
	if err != nil {
		return err
	}

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("failed to decode stream: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()

	if !a.initialized {
		if err := speaker.Init(a.sampleRate, a.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("%w: %v", shared.ErrAudioDevice, err)
		}
		a.initialized = true
	}

	if resumeOffsetMS > 0 {
		if err := streamer.Seek(format.SampleRate.N(time.Duration(resumeOffsetMS) * time.Millisecond)); err != nil {
			a.logger.Warnf("resume seek failed, starting from the top: %v", err)
		}
	}

	a.streamer = streamer
	a.format = format
	a.ended.Store(false)

	resampled := beep.Resample(4, format.SampleRate, a.sampleRate, streamer)
	a.ctrl = &beep.Ctrl{Streamer: resampled}

	// The callback runs on the speaker's mixer goroutine with its lock
	// held, so it must not touch a.mu.
	speaker.Play(beep.Seq(a.ctrl, beep.Callback(func() {
		a.ended.Store(true)
	})))

	return nil
}

// Pause halts the streamer and reports where it stopped.
func (a *SoundCloudAdapter) Pause(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ctrl == nil {
		return 0, nil
	}

	speaker.Lock()
	a.ctrl.Paused = true
	pos := a.streamer.Position()
	speaker.Unlock()

	return a.format.SampleRate.D(pos).Milliseconds(), nil
}

// Seek repositions the current streamer.
func (a *SoundCloudAdapter) Seek(ctx context.Context, positionMS int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.streamer == nil {
		return shared.ErrTrackNotFound
	}

	speaker.Lock()
	defer speaker.Unlock()
	return a.streamer.Seek(a.format.SampleRate.N(time.Duration(positionMS) * time.Millisecond))
}

// Position reports the playhead and total length in milliseconds, plus
// whether the streamer drained.
func (a *SoundCloudAdapter) Position(ctx context.Context) (int64, int64, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.streamer == nil {
		return 0, 0, false, nil
	}

	speaker.Lock()
	pos := a.streamer.Position()
	length := a.streamer.Len()
	speaker.Unlock()

	return a.format.SampleRate.D(pos).Milliseconds(),
		a.format.SampleRate.D(length).Milliseconds(),
		a.ended.Load(), nil
}

// stopLocked pauses and releases the current streamer. Must hold a.mu.
func (a *SoundCloudAdapter) stopLocked() {
	if a.ctrl != nil {
		speaker.Lock()
		a.ctrl.Paused = true
		speaker.Unlock()
	}
	if a.streamer != nil {
		a.streamer.Close()
		a.streamer = nil
	}
	a.ctrl = nil
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
