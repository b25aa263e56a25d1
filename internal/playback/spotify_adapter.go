package playback

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
)

// SpotifyAdapter drives playback on whatever device the backend reports as
// active. Playback happens remotely; this adapter only issues control calls,
// so every operation re-resolves the device first rather than trusting a
// cached ID that may have gone stale between calls.
type SpotifyAdapter struct {
	svc    *services.SpotifyService
	logger *log.Logger
}

// NewSpotifyAdapter creates an adapter over an authenticated service.
func NewSpotifyAdapter(svc *services.SpotifyService, logger *log.Logger) *SpotifyAdapter {
	return &SpotifyAdapter{svc: svc, logger: logger}
}

func (a *SpotifyAdapter) Source() models.Source { return models.SourceSpotify }

// resolveDevice finds a usable device ID, preferring the currently active
// player and falling back to the device list.
func (a *SpotifyAdapter) resolveDevice(ctx context.Context) (string, error) {
	if state, err := a.svc.PlayerState(ctx); err == nil && state.Device.ID != "" {
		return state.Device.ID, nil
	}

	devices, err := a.svc.Devices(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range devices {
		if d.IsActive {
			return d.ID, nil
		}
	}
	if len(devices) > 0 {
		return devices[0].ID, nil
	}
	return "", shared.ErrNoActiveDevice
}

// device resolves with exactly one retry. Device lists go stale when a
// client closes mid-session, and a second lookup usually sees the refreshed
// state; more retries just delay the error.
func (a *SpotifyAdapter) device(ctx context.Context) (string, error) {
	id, err := a.resolveDevice(ctx)
	if err == nil {
		return id, nil
	}
	a.logger.Debugf("device resolution failed, retrying once: %v", err)
	return a.resolveDevice(ctx)
}

// Play transfers playback to the resolved device and starts the track from
// the resume offset.
func (a *SpotifyAdapter) Play(ctx context.Context, track models.Track, resumeOffsetMS int64) error {
	deviceID, err := a.device(ctx)
	if err != nil {
		return err
	}

	if err := a.svc.TransferPlayback(ctx, deviceID, false); err != nil {
		return fmt.Errorf("failed to transfer playback: %w", err)
	}
	if err := a.svc.StartPlayback(ctx, deviceID, track.PlayableRef, resumeOffsetMS); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// Pause halts the remote player. The position is captured from player state
// before pausing; when the capture fails the pause still goes through and
// the error is returned alongside a zero position.
func (a *SpotifyAdapter) Pause(ctx context.Context) (int64, error) {
	if _, err := a.device(ctx); err != nil {
		return 0, err
	}

	var captured int64
	state, stateErr := a.svc.PlayerState(ctx)
	if stateErr == nil {
		captured = state.ProgressMS
	}

	if err := a.svc.PausePlayback(ctx); err != nil {
		return captured, fmt.Errorf("failed to pause playback: %w", err)
	}
	return captured, stateErr
}

// Seek moves the remote playhead.
func (a *SpotifyAdapter) Seek(ctx context.Context, positionMS int64) error {
	if _, err := a.device(ctx); err != nil {
		return err
	}
	return a.svc.SeekPlayback(ctx, positionMS)
}

// Position reports the remote playhead. The backend exposes no explicit
// end-of-track signal, so ended is always false and the caller's
// end-tolerance check does the detection.
func (a *SpotifyAdapter) Position(ctx context.Context) (int64, int64, bool, error) {
	state, err := a.svc.PlayerState(ctx)
	if err != nil {
		return 0, 0, false, err
	}

	var durMS int64
	if state.Item != nil {
		durMS = state.Item.DurationMS
	}
	return state.ProgressMS, durMS, false, nil
}
