package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/auth"
	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
)

const appVersion = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var store *auth.Store
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warnf("credential store unavailable: %v", err)
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warnf("failed to run migrations: %v", err)
		} else if store, err = auth.NewStore(db); err != nil {
			logger.Warnf("failed to open credential store: %v", err)
			store = nil
		}
	}

	var spotify *services.SpotifyService
	var soundcloud *services.SoundCloudService
	if store != nil {
		if purged, err := store.EnsureAppVersion(appVersion); err != nil {
			logger.Warnf("failed to record app version: %v", err)
		} else if purged {
			logger.Info("app version changed, stored sessions cleared")
		}

		spotify = services.NewSpotifyService(store.TokenFunc(models.SourceSpotify), nil)
		soundcloud = services.NewSoundCloudService(store.TokenFunc(models.SourceSoundCloud), nil)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		DB:         db,
		Store:      store,
		Spotify:    spotify,
		SoundCloud: soundcloud,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "duet",
		Usage:    "Browse & play your playlists across Spotify and SoundCloud",
		Version:  appVersion,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
