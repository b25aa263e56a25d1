package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenInvalid     = fmt.Errorf("access token rejected by provider")
	ErrExchangeFailed   = fmt.Errorf("token exchange failed")
	ErrVerifierMissing  = fmt.Errorf("no code verifier stored")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Playback errors
	ErrNoActiveDevice      = fmt.Errorf("no playback device available")
	ErrPlaybackUnsupported = fmt.Errorf("playback not supported in this environment")
	ErrAudioDevice         = fmt.Errorf("audio device refused to start")
	ErrIndexOutOfRange     = fmt.Errorf("track index out of range")
	ErrSourceMismatch      = fmt.Errorf("active source does not match track source")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
