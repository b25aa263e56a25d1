package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/duetfm/duet/internal/auth"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
	tu "github.com/duetfm/duet/internal/testing"
)

func newTestStore(t *testing.T) *auth.Store {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	store, err := auth.NewStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			spotify := services.NewSpotifyService(services.StaticToken("tok"), nil)
			soundcloud := services.NewSoundCloudService(services.StaticToken("tok"), nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Spotify:    spotify,
				SoundCloud: soundcloud,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.soundcloud != soundcloud {
				t.Error("expected soundcloud to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built when both services are set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("without both services leaves engine nil", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Spotify: services.NewSpotifyService(services.StaticToken("tok"), nil),
			})

			if runner.engine != nil {
				t.Error("expected engine to be nil with one service missing")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
		})
	})

	t.Run("catalog", func(t *testing.T) {
		spotify := services.NewSpotifyService(services.StaticToken("tok"), nil)
		soundcloud := services.NewSoundCloudService(services.StaticToken("tok"), nil)
		runner := NewRunner(RunnerOpts{Spotify: spotify, SoundCloud: soundcloud})

		t.Run("selects spotify", func(t *testing.T) {
			catalog, err := runner.catalog("spotify")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if catalog != services.Catalog(spotify) {
				t.Error("expected the spotify service")
			}
		})

		t.Run("selects soundcloud", func(t *testing.T) {
			catalog, err := runner.catalog("soundcloud")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if catalog != services.Catalog(soundcloud) {
				t.Error("expected the soundcloud service")
			}
		})

		t.Run("rejects unknown source", func(t *testing.T) {
			if _, err := runner.catalog("tidal"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("reports uninitialized service", func(t *testing.T) {
			empty := NewRunner(RunnerOpts{})
			if _, err := empty.catalog("spotify"); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("requireStore", func(t *testing.T) {
		t.Run("fails without store", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if err := runner.requireStore(); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("passes with store", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Store: newTestStore(t)})
			if err := runner.requireStore(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})
}

func TestExchangeCode(t *testing.T) {
	t.Run("posts code and stored verifier", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.SetVerifier("stored-verifier"); err != nil {
			t.Fatalf("failed to store verifier: %v", err)
		}

		var received map[string]string
		exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"access_token": "sc_token"})
		}))
		defer exchange.Close()

		runner := NewRunner(RunnerOpts{Store: store})

		token, err := runner.exchangeCode(context.Background(), "auth-code", "http://localhost:3000/callback", exchange.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "sc_token" {
			t.Errorf("expected sc_token, got %q", token)
		}
		if received["code"] != "auth-code" {
			t.Errorf("expected code auth-code, got %q", received["code"])
		}
		if received["code_verifier"] != "stored-verifier" {
			t.Errorf("expected stored verifier, got %q", received["code_verifier"])
		}
		if received["redirect_uri"] != "http://localhost:3000/callback" {
			t.Errorf("expected redirect_uri, got %q", received["redirect_uri"])
		}
	})

	t.Run("fails without stored verifier", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Store: newTestStore(t)})

		_, err := runner.exchangeCode(context.Background(), "auth-code", "http://localhost:3000/callback", "http://unused")
		if !errors.Is(err, shared.ErrExchangeFailed) {
			t.Errorf("expected ErrExchangeFailed, got %v", err)
		}
	})

	t.Run("surfaces provider failure", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.SetVerifier("stored-verifier"); err != nil {
			t.Fatalf("failed to store verifier: %v", err)
		}

		exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad code", http.StatusBadRequest)
		}))
		defer exchange.Close()

		runner := NewRunner(RunnerOpts{Store: store})

		_, err := runner.exchangeCode(context.Background(), "bad", "http://localhost:3000/callback", exchange.URL)
		if !errors.Is(err, shared.ErrExchangeFailed) {
			t.Errorf("expected ErrExchangeFailed, got %v", err)
		}
	})

	t.Run("verifier is consumed even when exchange fails", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.SetVerifier("stored-verifier"); err != nil {
			t.Fatalf("failed to store verifier: %v", err)
		}

		exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad code", http.StatusBadRequest)
		}))
		defer exchange.Close()

		runner := NewRunner(RunnerOpts{Store: store})

		if _, err := runner.exchangeCode(context.Background(), "bad", "http://localhost:3000/callback", exchange.URL); err == nil {
			t.Fatal("expected exchange to fail")
		}

		if _, err := store.TakeVerifier(); !errors.Is(err, shared.ErrVerifierMissing) {
			t.Errorf("expected verifier to be consumed, got %v", err)
		}
	})
}
