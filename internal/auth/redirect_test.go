package auth

import (
	"testing"

	"github.com/duetfm/duet/internal/models"
)

func TestParseCallback(t *testing.T) {
	t.Run("Implicit Flow Fragment", func(t *testing.T) {
		cb, err := ParseCallback("http://localhost:3000/callback?provider=spotify#access_token=tok123&token_type=Bearer&state=st1")
		if err != nil {
			t.Fatalf("failed to parse callback: %v", err)
		}

		if cb.Provider != models.SourceSpotify {
			t.Errorf("expected spotify provider, got %v", cb.Provider)
		}
		if cb.AccessToken != "tok123" {
			t.Errorf("expected access token tok123, got %q", cb.AccessToken)
		}
		if cb.State != "st1" {
			t.Errorf("expected fragment state st1, got %q", cb.State)
		}
		if cb.Code != "" {
			t.Errorf("implicit flow should carry no code, got %q", cb.Code)
		}
	})

	t.Run("PKCE Flow Query", func(t *testing.T) {
		cb, err := ParseCallback("http://localhost:3000/callback?provider=soundcloud&code=authcode9&state=st2")
		if err != nil {
			t.Fatalf("failed to parse callback: %v", err)
		}

		if cb.Provider != models.SourceSoundCloud {
			t.Errorf("expected soundcloud provider, got %v", cb.Provider)
		}
		if cb.Code != "authcode9" {
			t.Errorf("expected code authcode9, got %q", cb.Code)
		}
		if cb.State != "st2" {
			t.Errorf("expected query state st2, got %q", cb.State)
		}
	})

	t.Run("Static Host Rewrite", func(t *testing.T) {
		cb, err := ParseCallback("https://example.github.io/app/?/callback?provider=soundcloud&code=xyz")
		if err != nil {
			t.Fatalf("failed to parse rewritten callback: %v", err)
		}

		if cb.Provider != models.SourceSoundCloud {
			t.Errorf("expected soundcloud provider, got %v", cb.Provider)
		}
		if cb.Code != "xyz" {
			t.Errorf("expected code xyz, got %q", cb.Code)
		}
	})

	t.Run("Rewrite With Ampersand Separator", func(t *testing.T) {
		cb, err := ParseCallback("https://example.github.io/app/?/callback&provider=spotify#access_token=t")
		if err != nil {
			t.Fatalf("failed to parse rewritten callback: %v", err)
		}
		if cb.AccessToken != "t" {
			t.Errorf("expected fragment token, got %q", cb.AccessToken)
		}
	})

	t.Run("Token Re-Submitted Through Query", func(t *testing.T) {
		cb, err := ParseCallback("http://localhost:3000/callback?provider=spotify&access_token=tok456")
		if err != nil {
			t.Fatalf("failed to parse callback: %v", err)
		}
		if cb.AccessToken != "tok456" {
			t.Errorf("expected query token fallback, got %q", cb.AccessToken)
		}
	})

	t.Run("Denied Authorization", func(t *testing.T) {
		cb, err := ParseCallback("http://localhost:3000/callback?provider=soundcloud&error=access_denied")
		if err != nil {
			t.Fatalf("failed to parse callback: %v", err)
		}
		if cb.ErrorParam != "access_denied" {
			t.Errorf("expected error param, got %q", cb.ErrorParam)
		}
	})

	t.Run("Missing Provider", func(t *testing.T) {
		if _, err := ParseCallback("http://localhost:3000/callback?code=x"); err == nil {
			t.Error("expected error for missing provider")
		}
	})
}
