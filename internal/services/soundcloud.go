// SoundCloud API implementation of [Catalog] plus the authenticated stream
// fetch used by the local-decode playback adapter.
//
// Response types based on https://developers.soundcloud.com/docs/api/explorer/open-api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const soundcloudBaseURL = "https://api.soundcloud.com"

// SoundCloudUser represents a SoundCloud user (uploader or profile owner).
type SoundCloudUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Permalink string `json:"permalink_url"`
}

// SoundCloudTrack represents a SoundCloud track. Durations are milliseconds.
type SoundCloudTrack struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	User         SoundCloudUser `json:"user"`
	Duration     int64          `json:"duration"`
	StreamURL    string         `json:"stream_url"`
	URI          string         `json:"uri"`
	PermalinkURL string         `json:"permalink_url"`
}

// SoundCloudPlaylist represents a SoundCloud playlist (a "set").
type SoundCloudPlaylist struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	User   SoundCloudUser    `json:"user"`
	Tracks []SoundCloudTrack `json:"tracks"`
}

// SoundCloudService implements [Catalog] for the SoundCloud API.
//
// SoundCloud authenticates with an "OAuth <token>" Authorization header
// rather than the Bearer scheme.
type SoundCloudService struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSoundCloudService creates a new SoundCloud service reading its token
// through the supplied TokenFunc.
func NewSoundCloudService(token TokenFunc, client *http.Client) *SoundCloudService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SoundCloudService{
		baseURL:    soundcloudBaseURL,
		token:      token,
		httpClient: client,
		limiter:    newLimiter(),
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (s *SoundCloudService) SetBaseURL(u string) { s.baseURL = u }

func (s *SoundCloudService) Source() models.Source { return models.SourceSoundCloud }

func (s *SoundCloudService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	token := s.token()
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "OAuth "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("soundcloud", resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Probe issues the identity read used for credential liveness.
func (s *SoundCloudService) Probe(ctx context.Context) error {
	var me SoundCloudUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", &me); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenInvalid, err)
	}
	return nil
}

// Playlists retrieves the user's playlists. The SoundCloud endpoint returns
// the full set in one response, tracks included; summaries keep only titles.
func (s *SoundCloudService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var sets []SoundCloudPlaylist
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists", &sets); err != nil {
		return nil, err
	}

	return lo.Map(sets, func(sp SoundCloudPlaylist, _ int) models.Playlist {
		return models.Playlist{
			ID:     strconv.FormatInt(sp.ID, 10),
			Title:  sp.Title,
			Source: models.SourceSoundCloud,
		}
	}), nil
}

// Playlist retrieves a playlist by ID with its normalized track sequence.
func (s *SoundCloudService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var sp SoundCloudPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &sp); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}

	return &models.Playlist{
		ID:     strconv.FormatInt(sp.ID, 10),
		Title:  sp.Title,
		Source: models.SourceSoundCloud,
		Tracks: normalizeSoundCloudTracks(sp.Tracks),
	}, nil
}

func normalizeSoundCloudTracks(tracks []SoundCloudTrack) []models.Track {
	return lo.Map(tracks, func(st SoundCloudTrack, _ int) models.Track {
		streamURL := st.StreamURL
		if streamURL == "" {
			// Some responses omit stream_url; the track URI plus /stream is
			// the documented equivalent.
			streamURL = st.URI + "/stream"
		}
		return models.Track{
			ID:          strconv.FormatInt(st.ID, 10),
			Title:       st.Title,
			Artist:      st.User.Username,
			UploaderID:  strconv.FormatInt(st.User.ID, 10),
			DurationMS:  st.Duration,
			PlayableRef: streamURL,
			Permalink:   st.PermalinkURL,
			Source:      models.SourceSoundCloud,
		}
	})
}

// FetchStream downloads the protected stream resource for a track and returns
// the raw audio bytes. Plain-http stream URLs are upgraded to https before
// the authenticated fetch. Transient failures are retried with exponential
// backoff for a short window; the caller decides what a hard failure means.
func (s *SoundCloudService) FetchStream(ctx context.Context, streamURL string) ([]byte, error) {
	token := s.token()
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	// Older catalog payloads still hand out plain-http stream URLs; the
	// provider rejects those fetches, so upgrade them before requesting.
	if strings.HasPrefix(streamURL, "http://api.soundcloud.com") {
		streamURL = "https://" + strings.TrimPrefix(streamURL, "http://")
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxElapsedTime(5*time.Second),
	), ctx)

	var data []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "OAuth "+token)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("stream fetch failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return backoff.Permanent(fmt.Errorf("%w: status %d", shared.ErrTokenInvalid, resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("stream fetch failed: status %d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read stream body: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return data, nil
}
