package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
)

const (
	// pollInterval is how often the playhead is sampled while playing.
	pollInterval = time.Second

	// endToleranceMS absorbs provider progress jitter near the end of a
	// track so auto-advance fires even when the reported position never
	// quite reaches the duration.
	endToleranceMS = 500
)

type resumeKey struct {
	playlistID string
	index      int
}

// Snapshot is a read-only view of the coordinator for rendering. The zero
// value means nothing is loaded.
type Snapshot struct {
	Track      *models.Track
	Playlist   string
	Index      int
	Source     models.Source
	Playing    bool
	PositionMS int64
	DurationMS int64
	Shuffled   bool
	Notice     *Notice
}

// Coordinator owns all playback state and mediates between the two source
// adapters. Exactly one adapter is ever audible: switching sources pauses
// the active adapter and waits for the pause to complete before the new one
// is engaged.
//
// Every transition runs under one mutex, and each accepted transition bumps
// a sequence number so results of adapter calls that raced a newer
// transition are discarded.
type Coordinator struct {
	mu       sync.Mutex
	adapters map[models.Source]Adapter
	logger   *log.Logger
	rng      *rand.Rand

	playlist   *models.Playlist
	index      int
	source     models.Source
	playing    bool
	positionMS int64
	durationMS int64

	resume map[resumeKey]int64
	perm   *Permutation
	notice *Notice
	seq    uint64

	wake chan struct{}

	// openExternal is called with a track permalink when local decoding
	// is unavailable. Swapped out in tests.
	openExternal func(string) error
}

// NewCoordinator creates a Coordinator over the given adapters.
func NewCoordinator(logger *log.Logger, adapters ...Adapter) *Coordinator {
	c := &Coordinator{
		adapters:     make(map[models.Source]Adapter, len(adapters)),
		logger:       logger,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		resume:       make(map[resumeKey]int64),
		wake:         make(chan struct{}, 1),
		openExternal: shared.OpenBrowser,
	}
	for _, a := range adapters {
		c.adapters[a.Source()] = a
	}
	return c
}

// Play starts the track at index in the playlist. If another source is
// currently playing it is paused, and its position captured, before the new
// adapter is touched. On failure the coordinator's state is untouched and a
// dismissible notice is recorded.
func (c *Coordinator) Play(ctx context.Context, playlist *models.Playlist, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playLocked(ctx, playlist, index)
}

func (c *Coordinator) playLocked(ctx context.Context, playlist *models.Playlist, index int) error {
	if playlist == nil || index < 0 || index >= len(playlist.Tracks) {
		return fmt.Errorf("%w: index %d", shared.ErrIndexOutOfRange, index)
	}

	track := playlist.Tracks[index]
	adapter, ok := c.adapters[track.Source]
	if !ok {
		return fmt.Errorf("%w: no adapter for %s", shared.ErrSourceMismatch, track.Source)
	}

	// Never let two adapters run at once. The pause is awaited, and its
	// captured position is banked so the interrupted track resumes where
	// it left off.
	if c.playing && c.source != track.Source {
		c.pauseActiveLocked(ctx)
	}

	key := resumeKey{playlistID: playlist.ID, index: index}
	offset := c.resume[key]

	if err := adapter.Play(ctx, track, offset); err != nil {
		c.noteFailure(track, err)
		return err
	}

	c.seq++
	c.playlist = playlist
	c.index = index
	c.source = track.Source
	c.playing = true
	c.positionMS = offset
	c.durationMS = track.DurationMS
	c.notice = nil
	delete(c.resume, key)

	if c.perm != nil && c.perm.Current() != index {
		c.perm = NewPermutation(playlist.Tracks, index, c.rng)
	}

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// pauseActiveLocked pauses the active adapter and banks the captured
// position under the current (playlist, index). Capture is best effort: on
// error the last polled position is banked instead.
func (c *Coordinator) pauseActiveLocked(ctx context.Context) {
	adapter := c.adapters[c.source]
	captured, err := adapter.Pause(ctx)
	if err != nil {
		c.logger.Warnf("pause capture failed for %s, keeping last known position: %v", c.source, err)
		captured = c.positionMS
	}

	if c.playlist != nil {
		c.resume[resumeKey{playlistID: c.playlist.ID, index: c.index}] = captured
	}
	c.positionMS = captured
	c.playing = false
	c.seq++
}

// Pause halts the active track. Calling Pause while already paused or idle
// is a no-op.
func (c *Coordinator) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return nil
	}
	c.pauseActiveLocked(ctx)
	return nil
}

// Resume continues the current track from where Pause left it.
func (c *Coordinator) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing || c.playlist == nil {
		return nil
	}
	return c.playLocked(ctx, c.playlist, c.index)
}

// SkipForward advances to the next track, through the shuffle permutation
// when one is active, with wraparound at the end of the playlist.
func (c *Coordinator) SkipForward(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipLocked(ctx, true)
}

// SkipBackward moves to the previous track with wraparound.
func (c *Coordinator) SkipBackward(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipLocked(ctx, false)
}

func (c *Coordinator) skipLocked(ctx context.Context, forward bool) error {
	if c.playlist == nil || len(c.playlist.Tracks) == 0 {
		return shared.ErrTrackNotFound
	}

	// The shuffle pointer moves only once the new track is actually
	// playing; a failed play leaves it where it was.
	var next int
	undo := func() {}
	if c.perm != nil {
		perm := c.perm
		if forward {
			next = perm.Advance()
			undo = func() { perm.Retreat() }
		} else {
			next = perm.Retreat()
			undo = func() { perm.Advance() }
		}
	} else {
		n := len(c.playlist.Tracks)
		if forward {
			next = (c.index + 1) % n
		} else {
			next = (c.index - 1 + n) % n
		}
	}

	if err := c.playLocked(ctx, c.playlist, next); err != nil {
		undo()
		return err
	}
	return nil
}

// Seek moves the playhead of the current track. The position is clamped to
// [0, duration] and the cached position is updated optimistically so the
// transport bar does not wait a poll cycle.
func (c *Coordinator) Seek(ctx context.Context, positionMS int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playlist == nil {
		return shared.ErrTrackNotFound
	}

	if positionMS < 0 {
		positionMS = 0
	}
	if c.durationMS > 0 && positionMS > c.durationMS {
		positionMS = c.durationMS
	}

	adapter := c.adapters[c.source]
	if err := adapter.Seek(ctx, positionMS); err != nil {
		track := c.playlist.Tracks[c.index]
		c.noteFailure(track, err)
		return err
	}

	c.positionMS = positionMS
	if !c.playing {
		c.resume[resumeKey{playlistID: c.playlist.ID, index: c.index}] = positionMS
	}
	return nil
}

// Stop pauses whatever is active and returns the coordinator to idle.
func (c *Coordinator) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		c.pauseActiveLocked(ctx)
	}
	c.playlist = nil
	c.index = 0
	c.positionMS = 0
	c.durationMS = 0
	c.perm = nil
	c.seq++
}

// SetShuffle toggles shuffle. Turning it on builds a fresh permutation with
// the pointer on the playing track, so playback is not interrupted; turning
// it off resumes raw playlist order from the current index.
func (c *Coordinator) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !on {
		c.perm = nil
		return
	}
	if c.playlist == nil || len(c.playlist.Tracks) == 0 {
		return
	}
	c.perm = NewPermutation(c.playlist.Tracks, c.index, c.rng)
}

// DismissNotice clears the visible playback notice, if any.
func (c *Coordinator) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = nil
}

// Snapshot returns a copy of the current state for rendering.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Index:      c.index,
		Source:     c.source,
		Playing:    c.playing,
		PositionMS: c.positionMS,
		DurationMS: c.durationMS,
		Shuffled:   c.perm != nil,
		Notice:     c.notice,
	}
	if c.playlist != nil {
		snap.Playlist = c.playlist.Title
		if c.index < len(c.playlist.Tracks) {
			track := c.playlist.Tracks[c.index]
			snap.Track = &track
		}
	}
	return snap
}

// noteFailure records a typed notice for a failed control call. The playing
// flag is never set optimistically, so a failure here leaves state coherent.
func (c *Coordinator) noteFailure(track models.Track, err error) {
	kind := NoticeBackendError
	switch {
	case errors.Is(err, shared.ErrPlaybackUnsupported):
		kind = NoticeUnsupported
		if track.Permalink != "" {
			if openErr := c.openExternal(track.Permalink); openErr != nil {
				c.logger.Warnf("failed to open %s externally: %v", track.Title, openErr)
			}
		}
	case errors.Is(err, shared.ErrAudioDevice):
		kind = NoticeAutoplayBlocked
	}

	c.logger.Warnf("playback failed for %s (%s): %v", track.Title, track.Source, err)
	c.notice = &Notice{ID: shared.GenerateID(), Kind: kind, Message: err.Error(), Track: track.Title}
}

// Run drives auto-advance. It samples the adapter playhead once a second
// while something is playing and sleeps otherwise; when the playhead reaches
// the end of the track (within tolerance) it skips forward. Returns when the
// context is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		c.mu.Lock()
		playing := c.playing
		c.mu.Unlock()

		if !playing {
			ticker.Stop()
			select {
			case <-ctx.Done():
				return
			case <-c.wake:
				ticker.Reset(pollInterval)
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		case <-ticker.C:
			c.pollOnce(ctx)
		}
	}
}

// pollOnce samples the active adapter outside the lock, then re-checks the
// sequence number before acting so a transition that happened mid-flight
// invalidates the sample.
func (c *Coordinator) pollOnce(ctx context.Context) {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	adapter := c.adapters[c.source]
	seq := c.seq
	c.mu.Unlock()

	pos, dur, ended, err := adapter.Position(ctx)
	if err != nil {
		c.logger.Debugf("position poll failed for %s: %v", adapter.Source(), err)
		return
	}

	c.mu.Lock()
	if c.seq != seq || !c.playing {
		c.mu.Unlock()
		return
	}

	c.positionMS = pos
	if dur > 0 {
		c.durationMS = dur
	}

	finished := ended || (c.durationMS > 0 && pos >= c.durationMS-endToleranceMS)
	c.mu.Unlock()

	if finished {
		if err := c.SkipForward(ctx); err != nil {
			c.logger.Warnf("auto-advance failed: %v", err)
		}
	}
}
