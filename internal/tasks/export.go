package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/duetfm/duet/internal/formatter"
	"github.com/duetfm/duet/internal/models"
)

// ExportOpts contains configuration for shared playlist exports.
type ExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: duet_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Playlist loads per second (default: 5)
}

// ExportResult summarizes a shared playlist export run.
type ExportResult struct {
	Total     int
	Succeeded int
	Failed    int
	OutputDir string
	Files     []string
	Errors    []error
}

type exportJob struct {
	step     int
	playlist models.Playlist
}

type exportOutcome struct {
	step int
	name string
	path string
	err  error
}

// Export writes every shared playlist (flattened to the combined Spotify +
// SoundCloud track list) to disk concurrently. Worker count and the rate of
// playlist handling are bounded, and partial failures are collected rather
// than aborting the run.
func (e *SharedEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.SharedPlaylist, opts ExportOpts) (*ExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("duet_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Format == "" {
		opts.Format = "json"
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Total:     len(playlists),
		OutputDir: opts.OutputDir,
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(playlists))
	outcomes := make(chan exportOutcome, len(playlists))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, outcomes, opts)
	}

	go func() {
		defer close(jobs)
		for i, sp := range playlists {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(progress, exportingUpdate(i+1, len(playlists), sp.Title))
			jobs <- exportJob{step: i + 1, playlist: sp.Flatten()}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		if out.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, out.err)
			e.sendProgress(progress, exportFailedUpdate(out.step, len(playlists), out.name, out.err))
			continue
		}
		result.Succeeded++
		result.Files = append(result.Files, out.path)
		e.sendProgress(progress, exportCompletedUpdate(out.step, len(playlists), out.name, out.path))
	}

	return result, nil
}

// exportWorker renders and writes playlists from the jobs channel.
func (e *SharedEngine) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, outcomes chan<- exportOutcome, opts ExportOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		path := filepath.Join(opts.OutputDir, exportFilename(job.playlist.Title, opts.Format))
		_, err := formatter.WriteExport(&job.playlist, opts.Format, path)
		if err != nil {
			err = fmt.Errorf("failed to export %s: %w", job.playlist.Title, err)
		}
		outcomes <- exportOutcome{step: job.step, name: job.playlist.Title, path: path, err: err}
	}
}

// exportFilename derives a filesystem-safe filename from a playlist title.
func exportFilename(title, format string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, title)
	if safe == "" {
		safe = "playlist"
	}

	ext := formatExt(format)
	return safe + ext
}

func formatExt(format string) string {
	switch format {
	case "csv":
		return ".csv"
	case "markdown", "md":
		return ".md"
	case "txt", "text":
		return ".txt"
	default:
		return ".json"
	}
}
