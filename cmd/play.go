package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/auth"
	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/playback"
	"github.com/duetfm/duet/internal/shared"
	"github.com/duetfm/duet/internal/ui"
)

// Play launches the interactive player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}
	if r.spotify == nil || r.soundcloud == nil || r.engine == nil {
		return fmt.Errorf("%w: both services must be configured", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/duet.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	coordinator := playback.NewCoordinator(fileLogger,
		playback.NewSpotifyAdapter(r.spotify, fileLogger),
		playback.NewSoundCloudAdapter(r.soundcloud, fileLogger),
	)
	go coordinator.Run(runCtx)
	defer coordinator.Stop(context.Background())

	invalid := make(chan models.Source, 2)
	validator := auth.NewValidator(r.store, fileLogger, func(provider models.Source) {
		select {
		case invalid <- provider:
		default:
		}
	}, r.spotify, r.soundcloud)
	go validator.Run(runCtx)

	model := ui.NewModel(runCtx, r.spotify, r.soundcloud, r.engine, coordinator, r.store, invalid)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
