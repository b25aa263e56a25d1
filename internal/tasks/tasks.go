package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/services"
)

// SharedEngine computes the cross-provider shared playlist list: playlists
// that exist on both providers under the same title, compared
// case-insensitively with surrounding whitespace ignored.
type SharedEngine struct {
	spotify    services.Catalog
	soundcloud services.Catalog
	logger     *log.Logger
}

// NewSharedEngine creates a SharedEngine over both provider catalogs.
func NewSharedEngine(spotify, soundcloud services.Catalog, logger *log.Logger) *SharedEngine {
	return &SharedEngine{spotify: spotify, soundcloud: soundcloud, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SharedEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// playlistsOrEmpty fetches one provider's playlists. A catalog failure is
// not fatal to the shared computation: it is logged and treated as an empty
// library, so the result degrades to no matches instead of an error page.
func (e *SharedEngine) playlistsOrEmpty(ctx context.Context, catalog services.Catalog) []models.Playlist {
	playlists, err := catalog.Playlists(ctx)
	if err != nil {
		e.logger.Warnf("failed to list %s playlists: %v", catalog.Source(), err)
		return nil
	}
	return playlists
}

// Build fetches both providers' playlists, intersects them by normalized
// title, and loads the full track lists for each match. Matched pairs come
// back sorted by title so the output is stable across runs.
func (e *SharedEngine) Build(ctx context.Context, progress chan<- ProgressUpdate) ([]models.SharedPlaylist, error) {
	e.sendProgress(progress, fetchProviderUpdate(FetchSpotify, 1, 2))
	spotifyLists := e.playlistsOrEmpty(ctx, e.spotify)

	e.sendProgress(progress, fetchProviderUpdate(FetchSoundCloud, 2, 2))
	soundcloudLists := e.playlistsOrEmpty(ctx, e.soundcloud)

	byTitle := lo.KeyBy(soundcloudLists, func(pl models.Playlist) string {
		return models.NormalizeTitle(pl.Title)
	})

	type pair struct {
		title      string
		spotify    models.Playlist
		soundcloud models.Playlist
	}

	var pairs []pair
	seen := make(map[string]bool)
	for _, sp := range spotifyLists {
		key := models.NormalizeTitle(sp.Title)
		if seen[key] {
			continue
		}
		if sc, ok := byTitle[key]; ok {
			pairs = append(pairs, pair{title: key, spotify: sp, soundcloud: sc})
			seen[key] = true
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].title < pairs[j].title })

	e.sendProgress(progress, matchedUpdate(len(pairs)))

	result := make([]models.SharedPlaylist, 0, len(pairs))
	for i, p := range pairs {
		e.sendProgress(progress, loadTracksUpdate(i+1, len(pairs), p.spotify.Title))

		sp, err := e.spotify.Playlist(ctx, p.spotify.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load spotify playlist %s: %w", p.spotify.ID, err)
		}
		sc, err := e.soundcloud.Playlist(ctx, p.soundcloud.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load soundcloud playlist %s: %w", p.soundcloud.ID, err)
		}

		result = append(result, models.SharedPlaylist{
			Title:      p.spotify.Title,
			Spotify:    *sp,
			SoundCloud: *sc,
		})
	}

	return result, nil
}
