package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/duetfm/duet/internal/shared"
)

// soundcloudTokenURL is the confidential token endpoint the companion
// service exchanges authorization codes against.
const soundcloudTokenURL = "https://secure.soundcloud.com/oauth/token"

// APIHandler implements the companion service: the confidential SoundCloud
// token exchange, client configuration, the deployment version marker, and
// the single-page fallthrough for everything else.
type APIHandler struct {
	cfg         *shared.Config
	logger      *log.Logger
	version     string
	environment string
	index       []byte

	// tokenURL and httpClient are swapped out in tests.
	tokenURL   string
	httpClient *http.Client
}

// NewAPIHandler creates the companion service handler. index is the
// embedded entry document served on unmatched GETs.
func NewAPIHandler(cfg *shared.Config, logger *log.Logger, version, environment string, index []byte) *APIHandler {
	return &APIHandler{
		cfg:         cfg,
		logger:      logger,
		version:     version,
		environment: environment,
		index:       index,
		tokenURL:    soundcloudTokenURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Routes returns the HTTP routes this handler serves. The root route makes
// the handler the fallthrough for everything unmatched.
func (h *APIHandler) Routes() []string {
	return []string{"/"}
}

// ServeHTTP dispatches to the API endpoints, falling through to the entry
// document for any other GET.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/soundcloud/token":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleTokenExchange(w, r)
	case "/api/config":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleConfig(w, r)
	case "/api/version":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleVersion(w, r)
	default:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write(h.index)
	}
}

type tokenExchangeRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
}

type tokenExchangeResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// handleTokenExchange completes the PKCE flow on behalf of the client. The
// client secret never leaves this service; the client only ever holds the
// resulting access token.
func (h *APIHandler) handleTokenExchange(w http.ResponseWriter, r *http.Request) {
	var req tokenExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Code == "" || req.CodeVerifier == "" {
		writeError(w, http.StatusBadRequest, "code and code_verifier are required")
		return
	}

	conf := &oauth2.Config{
		ClientID:     envOr("SOUNDCLOUD_CLIENT_ID", h.cfg.Credentials.SoundCloud.ClientID),
		ClientSecret: os.Getenv("SOUNDCLOUD_CLIENT_SECRET"),
		RedirectURL:  req.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  h.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.httpClient)
	token, err := conf.Exchange(ctx, req.Code, oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier))
	if err != nil {
		h.logger.Errorf("soundcloud token exchange failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to exchange token")
		return
	}

	resp := tokenExchangeResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConfig serves the client IDs and redirect URIs the player needs to
// start a login, plus the externally visible base URL derived from proxy
// headers.
func (h *APIHandler) handleConfig(w http.ResponseWriter, r *http.Request) {
	protocol := r.Header.Get("X-Forwarded-Proto")
	if protocol == "" {
		protocol = "http"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"SPOTIFY_CLIENT_ID":       envOr("SPOTIFY_CLIENT_ID", h.cfg.Credentials.Spotify.ClientID),
		"SPOTIFY_REDIRECT_URI":    envOr("SPOTIFY_REDIRECT_URI", h.cfg.Credentials.Spotify.RedirectURI),
		"SOUNDCLOUD_CLIENT_ID":    envOr("SOUNDCLOUD_CLIENT_ID", h.cfg.Credentials.SoundCloud.ClientID),
		"SOUNDCLOUD_REDIRECT_URI": envOr("SOUNDCLOUD_REDIRECT_URI", h.cfg.Credentials.SoundCloud.RedirectURI),
		"BASE_URL":                protocol + "://" + r.Host,
	})
}

// handleVersion reports the deployment marker. Clients compare it against
// the marker they stored at login and purge their credentials on mismatch.
func (h *APIHandler) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":     h.version,
		"environment": h.environment,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
