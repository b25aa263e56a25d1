package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/shared"
)

// Playlists lists a provider's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	catalog, err := r.catalog(source)
	if err != nil {
		return err
	}

	r.logger.Infof("listing %v playlists", source)

	playlists, err := catalog.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Title)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", len(p.Tracks))
		r.writePlain("\n")
	}

	return nil
}

// Tracks prints the tracks of one playlist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	playlistID := cmd.String("id")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if playlistID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	catalog, err := r.catalog(source)
	if err != nil {
		return err
	}

	r.logger.Infof("loading %v playlist %v", source, playlistID)

	playlist, err := catalog.Playlist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(playlist, pretty)
	}

	r.writePlain("Playlist: %s\n", playlist.Title)
	r.writePlain("Tracks: %d\n\n", len(playlist.Tracks))

	for i, track := range playlist.Tracks {
		r.writePlain("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain(" [%s]\n", shared.FormatDuration(track.DurationMS))
	}

	return nil
}
