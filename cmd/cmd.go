// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles initial configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config file, initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles login and session management for both providers.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider sessions",
		Commands: []*cli.Command{
			{
				Name:    "spotify",
				Aliases: []string{"spot"},
				Usage:   "Connect Spotify (browser authorization)",
				Action:  r.AuthSpotify,
			},
			{
				Name:    "soundcloud",
				Aliases: []string{"sc"},
				Usage:   "Connect SoundCloud (browser authorization)",
				Action:  r.AuthSoundCloud,
			},
			{
				Name:   "status",
				Usage:  "Check stored sessions against each provider",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Clear stored sessions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Clear only this provider (spotify or soundcloud)",
					},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand handles playlist browsing.
func playlistsCommand(r *Runner) *cli.Command {
	sourceFlag := &cli.StringFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Provider to read from (spotify or soundcloud)",
		Value:   "spotify",
	}

	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse playlists",
		Flags: []cli.Flag{
			sourceFlag,
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "Show the tracks of one playlist",
				Flags: []cli.Flag{
					sourceFlag,
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.Tracks,
			},
		},
	}
}

// sharedCommand handles the cross-service playlist intersection.
func sharedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shared",
		Usage: "Playlists present on both services (matched by title)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Shared,
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export every shared playlist to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, txt, json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent export workers",
						Value: 3,
					},
				},
				Action: r.SharedExport,
			},
		},
	}
}

// playCommand launches the interactive player TUI.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Browse and play your playlists interactively",
		Action:  r.Play,
	}
}

// serveCommand runs the companion web service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the companion web service (token exchange, client config)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   3001,
			},
		},
		Action: r.Serve,
	}
}
