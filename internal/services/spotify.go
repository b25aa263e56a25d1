// Spotify API implementation of [Catalog] plus the player-control surface
// used by the remote-device playback adapter.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Product     string         `json:"product"`
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int64           `json:"duration_ms"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Next  *string                `json:"next"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Tracks playlistTracks `json:"tracks"`
	URI    string         `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// SpotifyDevice represents a playback device known to the backend.
type SpotifyDevice struct {
	ID       string `json:"id"`
	IsActive bool   `json:"is_active"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

// SpotifyPlayerState represents the backend's current playback state.
type SpotifyPlayerState struct {
	Device     SpotifyDevice `json:"device"`
	ProgressMS int64         `json:"progress_ms"`
	IsPlaying  bool          `json:"is_playing"`
	Item       *SpotifyTrack `json:"item"`
}

// SpotifyService implements [Catalog] for the Spotify API and exposes the
// player-control endpoints consumed by the remote-device adapter.
type SpotifyService struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a new Spotify service reading its bearer token
// through the supplied TokenFunc.
func NewSpotifyService(token TokenFunc, client *http.Client) *SpotifyService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		token:      token,
		httpClient: client,
		limiter:    newLimiter(),
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (s *SpotifyService) SetBaseURL(u string) { s.baseURL = u }

func (s *SpotifyService) Source() models.Source { return models.SourceSpotify }

// doRequest performs an authenticated request against the Spotify API and
// optionally decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	token := s.token()
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("spotify", resp); err != nil {
		return err
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Probe issues the identity read used for credential liveness.
func (s *SpotifyService) Probe(ctx context.Context) error {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenInvalid, err)
	}
	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists retrieves all of the user's playlists, following pagination.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, models.Playlist{
				ID:     sp.ID,
				Title:  sp.Name,
				Source: models.SourceSpotify,
			})
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// Playlist retrieves a playlist by ID with its full track sequence.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &sp); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}

	pl := &models.Playlist{
		ID:     sp.ID,
		Title:  sp.Name,
		Source: models.SourceSpotify,
		Tracks: normalizeSpotifyTracks(sp.Tracks.Items),
	}

	// Playlists longer than one page carry a next URL inside the tracks
	// envelope; follow it with the offset endpoint until exhausted.
	offset := len(sp.Tracks.Items)
	next := sp.Tracks.Next
	for next != nil {
		var page playlistTracks
		endpoint := fmt.Sprintf("/playlists/%s/tracks?offset=%d", playlistID, offset)
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		pl.Tracks = append(pl.Tracks, normalizeSpotifyTracks(page.Items)...)
		offset += len(page.Items)
		next = page.Next
	}

	return pl, nil
}

func normalizeSpotifyTracks(items []SpotifyPlaylistTrack) []models.Track {
	return lo.Map(items, func(item SpotifyPlaylistTrack, _ int) models.Track {
		st := item.Track
		names := lo.Map(st.Artists, func(a SpotifyArtist, _ int) string { return a.Name })
		ids := lo.Map(st.Artists, func(a SpotifyArtist, _ int) string { return a.ID })
		return models.Track{
			ID:          st.ID,
			Title:       st.Name,
			Artist:      strings.Join(names, ", "),
			ArtistIDs:   ids,
			Album:       st.Album.Name,
			DurationMS:  st.DurationMS,
			PlayableRef: st.URI,
			Permalink:   st.ExternalURLs.Spotify,
			Source:      models.SourceSpotify,
		}
	})
}

// Player-control surface (remote-device model)

// PlayerState retrieves the backend's current playback state, including the
// active device and progress. A 204 from the API (no active player) yields a
// zero-valued state with an empty device ID.
func (s *SpotifyService) PlayerState(ctx context.Context) (*SpotifyPlayerState, error) {
	var state SpotifyPlayerState
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Devices lists playback devices known to the backend.
func (s *SpotifyService) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var resp struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// TransferPlayback moves playback to the given device.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
}

// StartPlayback starts playing the given track URI on a device, optionally
// from a resume offset in milliseconds.
func (s *SpotifyService) StartPlayback(ctx context.Context, deviceID, uri string, positionMS int64) error {
	body := map[string]any{
		"uris":        []string{uri},
		"position_ms": positionMS,
	}
	endpoint := fmt.Sprintf("/me/player/play?device_id=%s", deviceID)
	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// PausePlayback pauses playback on the backend.
func (s *SpotifyService) PausePlayback(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil)
}

// SeekPlayback moves the backend playhead to the given millisecond position.
func (s *SpotifyService) SeekPlayback(ctx context.Context, positionMS int64) error {
	endpoint := fmt.Sprintf("/me/player/seek?position_ms=%d", positionMS)
	return s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}
