// package services defines interface Catalog for interacting with provider HTTP APIs
//
// Spotify, SoundCloud
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/duetfm/duet/internal/models"
	"golang.org/x/time/rate"
)

// Catalog defines the read-side interface for a music service provider:
// playlist listing, playlist detail, and a credential liveness probe.
type Catalog interface {
	// Playlists retrieves playlist summaries for the authenticated user.
	// Track sequences are not populated; use Playlist for the full detail.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// Playlist retrieves a specific playlist by ID including its tracks,
	// normalized to the models shapes.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// Probe issues a lightweight authenticated read against the provider's
	// identity endpoint. Any non-success response, including transport
	// failure, is reported as an error: liveness checks fail closed.
	Probe(ctx context.Context) error

	// Source returns the provider tag for tracks produced by this catalog.
	Source() models.Source
}

// TokenFunc supplies the current bearer credential for a provider. Reading
// through a function rather than a stored field means a purge by the token
// validator is visible to in-flight services immediately.
type TokenFunc func() string

// StaticToken wraps a fixed token string as a TokenFunc. Used by tests and
// one-shot CLI commands.
func StaticToken(token string) TokenFunc {
	return func() string { return token }
}

// newLimiter returns the shared per-service request limiter. Both providers
// document coarse per-client quotas; 10 req/s with small bursts stays well
// under them while keeping pagination snappy.
func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(10), 5)
}

// checkStatus converts a non-2xx response into an error carrying the provider
// name and status code.
func checkStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("%s API error: status %d", provider, resp.StatusCode)
}
