package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/duetfm/duet/internal/auth"
	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/server"
	"github.com/duetfm/duet/internal/shared"
)

const (
	spotifyAuthorizeURL    = "https://accounts.spotify.com/authorize"
	soundcloudAuthorizeURL = "https://secure.soundcloud.com/authorize"

	spotifyScopes = "playlist-read-private user-read-private user-read-playback-state user-modify-playback-state"
)

// AuthSpotify runs the implicit grant: the token arrives in the redirect URL
// fragment, which the local callback page folds into the query string.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" {
		return fmt.Errorf("%w: Spotify client_id must be set in config.toml", shared.ErrMissingCredentials)
	}

	state := shared.GenerateID()
	authURL := fmt.Sprintf("%s?%s", spotifyAuthorizeURL, url.Values{
		"client_id":     {creds.ClientID},
		"response_type": {"token"},
		"redirect_uri":  {creds.RedirectURI},
		"scope":         {spotifyScopes},
		"state":         {state},
	}.Encode())

	cb, err := r.awaitCallback(ctx, authURL, state)
	if err != nil {
		return err
	}
	if cb.AccessToken == "" {
		return fmt.Errorf("%w: no access token in redirect", shared.ErrAuthFailed)
	}

	if err := r.store.SetCredential(models.SourceSpotify, cb.AccessToken); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.writePlainln("✓ Spotify connected")
	r.writePlain("You can now use: duet playlists --source spotify\n")
	return nil
}

// AuthSoundCloud runs the PKCE code flow. The authorization code is exchanged
// by the companion web service so the client secret never lives here.
func (r *Runner) AuthSoundCloud(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	creds := r.config.Credentials.SoundCloud
	if creds.ClientID == "" {
		return fmt.Errorf("%w: SoundCloud client_id must be set in config.toml", shared.ErrMissingCredentials)
	}
	if creds.ExchangeURL == "" {
		return fmt.Errorf("%w: SoundCloud exchange_url must be set in config.toml", shared.ErrMissingConfig)
	}

	verifier, err := auth.NewVerifier()
	if err != nil {
		return fmt.Errorf("failed to generate code verifier: %w", err)
	}
	if err := r.store.SetVerifier(verifier); err != nil {
		return fmt.Errorf("failed to persist code verifier: %w", err)
	}

	state := shared.GenerateID()
	authURL := fmt.Sprintf("%s?%s", soundcloudAuthorizeURL, url.Values{
		"client_id":             {creds.ClientID},
		"response_type":         {"code"},
		"redirect_uri":          {creds.RedirectURI},
		"code_challenge":        {auth.Challenge(verifier)},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}.Encode())

	cb, err := r.awaitCallback(ctx, authURL, state)
	if err != nil {
		return err
	}
	if cb.Code == "" {
		return fmt.Errorf("%w: no authorization code in redirect", shared.ErrAuthFailed)
	}

	token, err := r.exchangeCode(ctx, cb.Code, creds.RedirectURI, creds.ExchangeURL)
	if err != nil {
		return err
	}

	if err := r.store.SetCredential(models.SourceSoundCloud, token); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.writePlainln("✓ SoundCloud connected")
	r.writePlain("You can now use: duet playlists --source soundcloud\n")
	return nil
}

// AuthStatus probes each provider's identity endpoint with the stored
// credential and reports session health.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	report := func(provider models.Source, probe func(context.Context) error) {
		if r.store.Credential(provider) == "" {
			r.writePlain("%s: ✗ not connected\n", provider)
			return
		}
		if err := probe(ctx); err != nil {
			r.writePlain("%s: ⚠ session invalid (%v)\n", provider, err)
			return
		}
		r.writePlain("%s: ✓ connected\n", provider)
	}

	if r.spotify != nil {
		report(models.SourceSpotify, r.spotify.Probe)
	}
	if r.soundcloud != nil {
		report(models.SourceSoundCloud, r.soundcloud.Probe)
	}
	return nil
}

// AuthLogout clears one provider's session, or both.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	provider := cmd.String("provider")
	if provider == "" {
		if err := r.store.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		return r.writePlain("✓ All sessions cleared\n")
	}

	source := models.Source(provider)
	if !source.Valid() {
		return fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidArgument, provider)
	}
	if err := r.store.ClearCredential(source); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.writePlain("✓ %s session cleared\n", source)
}

// awaitCallback serves the OAuth redirect on the configured local port,
// opens the browser at authURL and blocks until a redirect carrying the
// issued state token lands.
func (r *Runner) awaitCallback(ctx context.Context, authURL, state string) (*auth.Callback, error) {
	handler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("waiting for authorization redirect at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Callback == nil {
		return nil, fmt.Errorf("%w: no callback received", shared.ErrAuthFailed)
	}

	return result.Callback, nil
}

// exchangeCode posts the authorization code and the stored verifier to the
// companion service's exchange endpoint. The verifier is single-use whether
// or not the exchange succeeds.
func (r *Runner) exchangeCode(ctx context.Context, code, redirectURI, exchangeURL string) (string, error) {
	verifier, err := r.store.TakeVerifier()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}

	body, err := json.Marshal(map[string]string{
		"code":          code,
		"code_verifier": verifier,
		"redirect_uri":  redirectURI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exchangeURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: exchange service returned status %d", shared.ErrExchangeFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: malformed exchange response: %v", shared.ErrExchangeFailed, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: exchange response missing access_token", shared.ErrExchangeFailed)
	}

	return payload.AccessToken, nil
}
