package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
	"github.com/duetfm/duet/internal/tasks"
)

// Shared builds and prints the playlists present on both services.
func (r *Runner) Shared(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.engine == nil {
		return fmt.Errorf("%w: both services must be configured", shared.ErrServiceUnavailable)
	}

	playlists, err := r.buildShared(ctx)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found on both services.\n")
	}

	r.writePlain("Found %d playlists on both services:\n\n", len(playlists))
	for i, sp := range playlists {
		r.writePlain("%d. %s\n", i+1, sp.Title)
		r.writePlain("   Spotify: %d tracks (%s)\n", len(sp.Spotify.Tracks), sp.Spotify.ID)
		r.writePlain("   SoundCloud: %d tracks (%s)\n", len(sp.SoundCloud.Tracks), sp.SoundCloud.ID)
		r.writePlain("\n")
	}

	return nil
}

// SharedExport writes every shared playlist to one file per list.
func (r *Runner) SharedExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputDir := cmd.String("output")
	workers := cmd.Int("workers")

	if r.engine == nil {
		return fmt.Errorf("%w: both services must be configured", shared.ErrServiceUnavailable)
	}

	playlists, err := r.buildShared(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		return r.writePlain("Nothing to export.\n")
	}

	progress := make(chan tasks.ProgressUpdate, len(playlists)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Infof("[%v] %v", update.Phase, update.Message)
		}
	}()

	result, err := r.engine.Export(ctx, progress, playlists, tasks.ExportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: workers,
	})
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlain("✓ Exported %d/%d playlists to %s\n", result.Succeeded, result.Total, result.OutputDir)
	for _, exportErr := range result.Errors {
		r.writePlain("  ⚠ %v\n", exportErr)
	}

	return nil
}

func (r *Runner) buildShared(ctx context.Context) ([]models.SharedPlaylist, error) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debugf("[%v] %v", update.Phase, update.Message)
		}
	}()

	playlists, err := r.engine.Build(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return playlists, nil
}
