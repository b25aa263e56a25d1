package auth

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(newTestDB(t))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestStore(t *testing.T) {
	t.Run("Set And Get Credential", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.SetCredential(models.SourceSpotify, "sp_token"); err != nil {
			t.Fatalf("failed to set credential: %v", err)
		}

		if got := store.Credential(models.SourceSpotify); got != "sp_token" {
			t.Errorf("expected sp_token, got %q", got)
		}
		if got := store.Credential(models.SourceSoundCloud); got != "" {
			t.Errorf("expected empty soundcloud credential, got %q", got)
		}
	})

	t.Run("Rejects Unknown Provider And Empty Token", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.SetCredential(models.Source("youtube"), "x"); err == nil {
			t.Error("expected error for unknown provider")
		}
		if err := store.SetCredential(models.SourceSpotify, ""); err == nil {
			t.Error("expected error for empty token")
		}
	})

	t.Run("Upsert Overwrites", func(t *testing.T) {
		store := newTestStore(t)

		store.SetCredential(models.SourceSpotify, "first")
		store.SetCredential(models.SourceSpotify, "second")

		if got := store.Credential(models.SourceSpotify); got != "second" {
			t.Errorf("expected second, got %q", got)
		}
	})

	t.Run("Persists Across Reload", func(t *testing.T) {
		db := newTestDB(t)

		store, err := NewStore(db)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		store.SetCredential(models.SourceSoundCloud, "sc_token")

		reloaded, err := NewStore(db)
		if err != nil {
			t.Fatalf("failed to reload store: %v", err)
		}
		if got := reloaded.Credential(models.SourceSoundCloud); got != "sc_token" {
			t.Errorf("expected persisted token after reload, got %q", got)
		}
	})

	t.Run("ClearCredential Affects One Provider", func(t *testing.T) {
		store := newTestStore(t)

		store.SetCredential(models.SourceSpotify, "sp")
		store.SetCredential(models.SourceSoundCloud, "sc")

		if err := store.ClearCredential(models.SourceSpotify); err != nil {
			t.Fatalf("failed to clear credential: %v", err)
		}

		if got := store.Credential(models.SourceSpotify); got != "" {
			t.Errorf("expected spotify credential cleared, got %q", got)
		}
		if got := store.Credential(models.SourceSoundCloud); got != "sc" {
			t.Errorf("expected soundcloud credential untouched, got %q", got)
		}
	})

	t.Run("TokenFunc Sees Purge", func(t *testing.T) {
		store := newTestStore(t)
		store.SetCredential(models.SourceSpotify, "sp")

		token := store.TokenFunc(models.SourceSpotify)
		if token() != "sp" {
			t.Fatalf("expected token func to read credential")
		}

		store.ClearCredential(models.SourceSpotify)
		if token() != "" {
			t.Error("expected token func to observe the purge")
		}
	})

	t.Run("Verifier Is Single Use", func(t *testing.T) {
		store := newTestStore(t)

		if _, err := store.TakeVerifier(); !errors.Is(err, shared.ErrVerifierMissing) {
			t.Errorf("expected ErrVerifierMissing, got %v", err)
		}

		if err := store.SetVerifier("abc123"); err != nil {
			t.Fatalf("failed to set verifier: %v", err)
		}

		verifier, err := store.TakeVerifier()
		if err != nil {
			t.Fatalf("failed to take verifier: %v", err)
		}
		if verifier != "abc123" {
			t.Errorf("expected abc123, got %q", verifier)
		}

		if _, err := store.TakeVerifier(); !errors.Is(err, shared.ErrVerifierMissing) {
			t.Errorf("expected verifier to be discarded after take, got %v", err)
		}
	})

	t.Run("EnsureAppVersion", func(t *testing.T) {
		store := newTestStore(t)
		store.SetCredential(models.SourceSpotify, "sp")

		// First sighting records the marker without purging.
		cleared, err := store.EnsureAppVersion("v1")
		if err != nil {
			t.Fatalf("failed to ensure version: %v", err)
		}
		if cleared {
			t.Error("first version sighting should not purge")
		}
		if store.Credential(models.SourceSpotify) != "sp" {
			t.Error("credential should survive first sighting")
		}

		// Same version is a no-op.
		if cleared, _ = store.EnsureAppVersion("v1"); cleared {
			t.Error("matching version should not purge")
		}

		// A new deployment invalidates stored tokens.
		cleared, err = store.EnsureAppVersion("v2")
		if err != nil {
			t.Fatalf("failed to ensure version: %v", err)
		}
		if !cleared {
			t.Error("version change should purge credentials")
		}
		if store.Credential(models.SourceSpotify) != "" {
			t.Error("credential should be cleared after version change")
		}
	})
}
