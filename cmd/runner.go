package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/auth"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
	"github.com/duetfm/duet/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	db         *sql.DB
	store      *auth.Store
	spotify    *services.SpotifyService
	soundcloud *services.SoundCloudService
	engine     *tasks.SharedEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	DB         *sql.DB
	Store      *auth.Store
	Spotify    *services.SpotifyService
	SoundCloud *services.SoundCloudService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	var engine *tasks.SharedEngine
	if opts.Spotify != nil && opts.SoundCloud != nil {
		engine = tasks.NewSharedEngine(opts.Spotify, opts.SoundCloud, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		db:         opts.DB,
		store:      opts.Store,
		spotify:    opts.Spotify,
		soundcloud: opts.SoundCloud,
		engine:     engine,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, sharedCommand, playCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, used when the TUI takes over the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// catalog returns the catalog reader for the given source flag value.
func (r *Runner) catalog(source string) (services.Catalog, error) {
	switch source {
	case "spotify":
		if r.spotify == nil {
			return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
		}
		return r.spotify, nil
	case "soundcloud":
		if r.soundcloud == nil {
			return nil, fmt.Errorf("%w: SoundCloud service not initialized", shared.ErrServiceUnavailable)
		}
		return r.soundcloud, nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q (want spotify or soundcloud)", shared.ErrInvalidArgument, source)
	}
}

func (r *Runner) requireStore() error {
	if r.store == nil {
		return fmt.Errorf("%w: credential store unavailable, run: duet setup", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
