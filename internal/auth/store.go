package auth

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
)

const (
	settingAppVersion   = "app_version"
	settingPKCEVerifier = "pkce_verifier"
)

// Store persists one opaque bearer credential per provider plus the small
// pieces of session state that must survive a redirect round-trip: the PKCE
// code verifier and the app-version marker.
//
// Credentials are mirrored in memory so reads are cheap and a purge by the
// validator is immediately visible to services reading through a TokenFunc.
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	tokens map[models.Source]string
}

// NewStore creates a Store over an open, migrated database and loads any
// persisted credentials into memory.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, tokens: make(map[models.Source]string)}

	rows, err := db.Query("SELECT provider, token FROM credentials")
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider, token string
		if err := rows.Scan(&provider, &token); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		s.tokens[models.Source(provider)] = token
	}

	return s, rows.Err()
}

// SetCredential stores the token in memory and in persistent storage.
func (s *Store) SetCredential(provider models.Source, token string) error {
	if !provider.Valid() {
		return fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidArgument, provider)
	}
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidArgument)
	}

	query := `
		INSERT INTO credentials (provider, token, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, provider.String(), token, time.Now()); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	s.mu.Lock()
	s.tokens[provider] = token
	s.mu.Unlock()

	return nil
}

// Credential returns the in-memory token for the provider, or "" when the
// provider has no live session.
func (s *Store) Credential(provider models.Source) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[provider]
}

// TokenFunc returns a function reading the provider's current credential.
// Services hold this instead of a token copy.
func (s *Store) TokenFunc(provider models.Source) func() string {
	return func() string { return s.Credential(provider) }
}

// ClearCredential purges the provider's token from persistent storage and
// clears the in-memory value. The other provider's session is unaffected.
func (s *Store) ClearCredential(provider models.Source) error {
	if _, err := s.db.Exec("DELETE FROM credentials WHERE provider = ?", provider.String()); err != nil {
		return fmt.Errorf("failed to purge credential: %w", err)
	}

	s.mu.Lock()
	delete(s.tokens, provider)
	s.mu.Unlock()

	return nil
}

// ClearAll removes both providers' credentials.
func (s *Store) ClearAll() error {
	for _, provider := range []models.Source{models.SourceSpotify, models.SourceSoundCloud} {
		if err := s.ClearCredential(provider); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) setSetting(key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to persist setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetVerifier persists the PKCE code verifier ahead of the authorize
// redirect so it survives the round-trip.
func (s *Store) SetVerifier(verifier string) error {
	return s.setSetting(settingPKCEVerifier, verifier)
}

// TakeVerifier returns the stored PKCE verifier and deletes it. The verifier
// is single-use: it is discarded whether or not the exchange that follows
// succeeds.
func (s *Store) TakeVerifier() (string, error) {
	verifier, err := s.setting(settingPKCEVerifier)
	if err != nil {
		return "", err
	}
	if verifier == "" {
		return "", shared.ErrVerifierMissing
	}

	if _, err := s.db.Exec("DELETE FROM settings WHERE key = ?", settingPKCEVerifier); err != nil {
		return "", fmt.Errorf("failed to discard verifier: %w", err)
	}

	return verifier, nil
}

// EnsureAppVersion compares the stored app-version marker with the version
// reported by the server. On mismatch both credentials are cleared (tokens
// minted against an older deployment are suspect) and the marker is updated.
// Returns true when a purge happened.
func (s *Store) EnsureAppVersion(version string) (bool, error) {
	stored, err := s.setting(settingAppVersion)
	if err != nil {
		return false, err
	}

	if stored == version {
		return false, nil
	}

	if stored != "" {
		if err := s.ClearAll(); err != nil {
			return false, err
		}
	}

	if err := s.setSetting(settingAppVersion, version); err != nil {
		return stored != "", err
	}

	return stored != "", nil
}
