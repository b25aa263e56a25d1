package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duetfm/duet/internal/shared"
)

func newTestAPIHandler(t *testing.T) *APIHandler {
	t.Helper()
	cfg := shared.DefaultConfig()
	cfg.Credentials.Spotify.ClientID = "spotify-client"
	cfg.Credentials.Spotify.RedirectURI = "http://localhost:3000/callback?provider=spotify"
	cfg.Credentials.SoundCloud.ClientID = "soundcloud-client"
	cfg.Credentials.SoundCloud.RedirectURI = "http://localhost:3000/callback?provider=soundcloud"

	logger := shared.NewLogger(io.Discard)
	return NewAPIHandler(cfg, logger, "v123", "test", []byte("<html>duet</html>"))
}

func TestAPIHandlerConfig(t *testing.T) {
	handler := newTestAPIHandler(t)

	t.Run("Returns Client Configuration", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
		req.Host = "duet.example.com"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if body["SPOTIFY_CLIENT_ID"] != "spotify-client" {
			t.Errorf("unexpected spotify client id: %q", body["SPOTIFY_CLIENT_ID"])
		}
		if body["BASE_URL"] != "http://duet.example.com" {
			t.Errorf("unexpected base url: %q", body["BASE_URL"])
		}
	})

	t.Run("Base URL Honors Forwarded Proto", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
		req.Host = "duet.example.com"
		req.Header.Set("X-Forwarded-Proto", "https")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		var body map[string]string
		json.NewDecoder(rec.Body).Decode(&body)
		if body["BASE_URL"] != "https://duet.example.com" {
			t.Errorf("expected https base url behind proxy, got %q", body["BASE_URL"])
		}
	})
}

func TestAPIHandlerVersion(t *testing.T) {
	handler := newTestAPIHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["version"] != "v123" || body["environment"] != "test" {
		t.Errorf("unexpected version payload: %v", body)
	}
}

func TestAPIHandlerTokenExchange(t *testing.T) {
	t.Run("Exchanges Code For Token", func(t *testing.T) {
		var form map[string][]string
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			form = r.PostForm
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"sc_token","token_type":"bearer","expires_in":3600}`))
		}))
		defer provider.Close()

		handler := newTestAPIHandler(t)
		handler.tokenURL = provider.URL

		payload := `{"code":"authcode","code_verifier":"verif123","redirect_uri":"http://localhost:3000/callback?provider=soundcloud"}`
		req := httptest.NewRequest(http.MethodPost, "/api/soundcloud/token", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body tokenExchangeResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.AccessToken != "sc_token" {
			t.Errorf("unexpected access token: %q", body.AccessToken)
		}

		if got := form["code_verifier"]; len(got) != 1 || got[0] != "verif123" {
			t.Errorf("provider did not receive code_verifier: %v", form)
		}
		if got := form["grant_type"]; len(got) != 1 || got[0] != "authorization_code" {
			t.Errorf("unexpected grant type: %v", form)
		}
	})

	t.Run("Provider Failure Yields JSON Error", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad code", http.StatusBadRequest)
		}))
		defer provider.Close()

		handler := newTestAPIHandler(t)
		handler.tokenURL = provider.URL

		payload := `{"code":"bad","code_verifier":"v","redirect_uri":"x"}`
		req := httptest.NewRequest(http.MethodPost, "/api/soundcloud/token", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("expected JSON error body: %v", err)
		}
		if body["error"] == "" {
			t.Error("expected error field in response")
		}
	})

	t.Run("Missing Fields Rejected", func(t *testing.T) {
		handler := newTestAPIHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/soundcloud/token", strings.NewReader(`{"code":""}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("GET Not Allowed", func(t *testing.T) {
		handler := newTestAPIHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/soundcloud/token", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestAPIHandlerFallthrough(t *testing.T) {
	handler := newTestAPIHandler(t)

	for _, path := range []string{"/", "/callback", "/playlists/shared"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "duet") {
			t.Errorf("%s: expected entry document", path)
		}
	}
}
