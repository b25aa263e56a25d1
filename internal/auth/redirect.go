package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/shared"
)

// Callback holds the parameters extracted from an OAuth redirect URL.
//
// Exactly one of Code (PKCE flow) or AccessToken (implicit flow) is set for a
// well-formed redirect.
type Callback struct {
	Provider    models.Source
	Code        string // authorization code, from the query string
	AccessToken string // bearer token, from the URL fragment
	State       string // anti-forgery token echoed by the provider
	ErrorParam  string // provider error code, if authorization was denied
}

// ParseCallback extracts OAuth redirect parameters from a raw URL.
//
// The implicit flow delivers the token in the URL fragment; the PKCE flow
// delivers the code in the query string alongside a provider discriminator.
// Static-hosting rewrites of the form "?/callback?provider=x&code=y" are
// normalized to the plain form before parsing.
func ParseCallback(raw string) (*Callback, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed redirect URL: %v", shared.ErrInvalidInput, err)
	}

	query := normalizeQuery(u.RawQuery)

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed redirect query: %v", shared.ErrInvalidInput, err)
	}

	cb := &Callback{
		Provider:   models.Source(params.Get("provider")),
		Code:       params.Get("code"),
		State:      params.Get("state"),
		ErrorParam: params.Get("error"),
	}

	if frag := u.Fragment; frag != "" {
		fragParams, err := url.ParseQuery(frag)
		if err == nil {
			cb.AccessToken = fragParams.Get("access_token")
			if cb.State == "" {
				cb.State = fragParams.Get("state")
			}
		}
	}
	if cb.AccessToken == "" {
		// The local callback page re-submits fragment parameters through
		// the query string, since fragments never reach a server.
		cb.AccessToken = params.Get("access_token")
	}

	if !cb.Provider.Valid() {
		return nil, fmt.Errorf("%w: missing or unknown provider in redirect", shared.ErrInvalidInput)
	}

	return cb, nil
}

// normalizeQuery undoes the single-page-app 404 rewrite some static hosts
// apply, which folds the callback path into the query string.
func normalizeQuery(rawQuery string) string {
	if !strings.HasPrefix(rawQuery, "/") {
		return rawQuery
	}

	rest := strings.TrimPrefix(rawQuery, "/")
	// "/callback?provider=x&code=y" or "/callback&provider=x&code=y"
	if i := strings.IndexAny(rest, "?&"); i >= 0 {
		return rest[i+1:]
	}
	return ""
}
