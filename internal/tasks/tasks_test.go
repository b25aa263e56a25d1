package tasks

import (
	"context"
	"io"
	"testing"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
	th "github.com/duetfm/duet/internal/testing"
)

func playlist(id, title string, source models.Source, tracks ...models.Track) models.Playlist {
	return models.Playlist{ID: id, Title: title, Source: source, Tracks: tracks}
}

func track(id, title string, source models.Source) models.Track {
	return models.Track{ID: id, Title: title, Source: source}
}

func newEngines(spotify, soundcloud *th.MockCatalog) *SharedEngine {
	return NewSharedEngine(spotify, soundcloud, shared.NewLogger(io.Discard))
}

func TestSharedEngineBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("Intersects By Normalized Title", func(t *testing.T) {
		spotify := &th.MockCatalog{
			Provider: models.SourceSpotify,
			Lists: []models.Playlist{
				playlist("sp1", "Road Trip", models.SourceSpotify, track("a", "Song A", models.SourceSpotify)),
				playlist("sp2", "Focus", models.SourceSpotify),
			},
		}
		soundcloud := &th.MockCatalog{
			Provider: models.SourceSoundCloud,
			Lists: []models.Playlist{
				playlist("sc1", "  road trip ", models.SourceSoundCloud, track("b", "Song B", models.SourceSoundCloud)),
				playlist("sc2", "Workout", models.SourceSoundCloud),
			},
		}

		result, err := newEngines(spotify, soundcloud).Build(ctx, nil)
		if err != nil {
			t.Fatalf("failed to build shared playlists: %v", err)
		}

		if len(result) != 1 {
			t.Fatalf("expected 1 shared playlist, got %d", len(result))
		}
		if result[0].Title != "Road Trip" {
			t.Errorf("expected display title from spotify side, got %q", result[0].Title)
		}
		if len(result[0].Spotify.Tracks) != 1 || len(result[0].SoundCloud.Tracks) != 1 {
			t.Error("expected full track lists loaded for both sides")
		}
	})

	t.Run("Punctuation Differences Do Not Match", func(t *testing.T) {
		spotify := &th.MockCatalog{
			Provider: models.SourceSpotify,
			Lists:    []models.Playlist{playlist("sp1", "My Mix!", models.SourceSpotify)},
		}
		soundcloud := &th.MockCatalog{
			Provider: models.SourceSoundCloud,
			Lists:    []models.Playlist{playlist("sc1", "My Mix", models.SourceSoundCloud)},
		}

		result, err := newEngines(spotify, soundcloud).Build(ctx, nil)
		if err != nil {
			t.Fatalf("failed to build shared playlists: %v", err)
		}
		if len(result) != 0 {
			t.Errorf("punctuation variants must not match, got %d results", len(result))
		}
	})

	t.Run("Flatten Orders Spotify Tracks First", func(t *testing.T) {
		spotify := &th.MockCatalog{
			Provider: models.SourceSpotify,
			Lists: []models.Playlist{
				playlist("sp1", "Road Trip", models.SourceSpotify,
					track("a1", "A1", models.SourceSpotify),
					track("a2", "A2", models.SourceSpotify)),
			},
		}
		soundcloud := &th.MockCatalog{
			Provider: models.SourceSoundCloud,
			Lists: []models.Playlist{
				playlist("sc1", "Road Trip", models.SourceSoundCloud,
					track("b1", "B1", models.SourceSoundCloud)),
			},
		}

		result, err := newEngines(spotify, soundcloud).Build(ctx, nil)
		if err != nil {
			t.Fatalf("failed to build shared playlists: %v", err)
		}

		flat := result[0].Flatten()
		if len(flat.Tracks) != 3 {
			t.Fatalf("expected 3 combined tracks, got %d", len(flat.Tracks))
		}
		wantOrder := []string{"a1", "a2", "b1"}
		for i, id := range wantOrder {
			if flat.Tracks[i].ID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, flat.Tracks[i].ID)
			}
		}
	})

	t.Run("Catalog Failure Degrades To Empty", func(t *testing.T) {
		spotify := &th.MockCatalog{
			Provider: models.SourceSpotify,
			ListsErr: shared.ErrServiceUnavailable,
		}
		soundcloud := &th.MockCatalog{
			Provider: models.SourceSoundCloud,
			Lists:    []models.Playlist{playlist("sc1", "Road Trip", models.SourceSoundCloud)},
		}

		result, err := newEngines(spotify, soundcloud).Build(ctx, nil)
		if err != nil {
			t.Fatalf("catalog failure should not fail the build: %v", err)
		}
		if len(result) != 0 {
			t.Errorf("expected no matches against an empty library, got %d", len(result))
		}
	})

	t.Run("Results Sorted By Title", func(t *testing.T) {
		spotify := &th.MockCatalog{
			Provider: models.SourceSpotify,
			Lists: []models.Playlist{
				playlist("sp1", "Zebra", models.SourceSpotify),
				playlist("sp2", "Alpha", models.SourceSpotify),
			},
		}
		soundcloud := &th.MockCatalog{
			Provider: models.SourceSoundCloud,
			Lists: []models.Playlist{
				playlist("sc1", "zebra", models.SourceSoundCloud),
				playlist("sc2", "alpha", models.SourceSoundCloud),
			},
		}

		result, err := newEngines(spotify, soundcloud).Build(ctx, nil)
		if err != nil {
			t.Fatalf("failed to build shared playlists: %v", err)
		}
		if len(result) != 2 || result[0].Title != "Alpha" || result[1].Title != "Zebra" {
			t.Errorf("expected stable title order, got %+v", result)
		}
	})

	t.Run("Emits Progress Updates", func(t *testing.T) {
		spotify := &th.MockCatalog{
			Provider: models.SourceSpotify,
			Lists:    []models.Playlist{playlist("sp1", "Road Trip", models.SourceSpotify)},
		}
		soundcloud := &th.MockCatalog{
			Provider: models.SourceSoundCloud,
			Lists:    []models.Playlist{playlist("sc1", "Road Trip", models.SourceSoundCloud)},
		}

		progress := make(chan ProgressUpdate, 16)
		if _, err := newEngines(spotify, soundcloud).Build(ctx, progress); err != nil {
			t.Fatalf("failed to build shared playlists: %v", err)
		}
		close(progress)

		phases := make(map[Phase]bool)
		for update := range progress {
			phases[update.Phase] = true
		}
		for _, want := range []Phase{FetchSpotify, FetchSoundCloud, Match, LoadTracks} {
			if !phases[want] {
				t.Errorf("expected a %s progress update", want)
			}
		}
	})
}
