// Package services defines the [Catalog] interface for music streaming
// providers and implements it for Spotify and SoundCloud.
//
// # Catalog Interface
//
// Both providers expose playlist listing, playlist detail, and an identity
// probe through a common abstraction, so the shared-playlists engine and the
// token validator work uniformly across providers.
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Spotify Web API with a Bearer token obtained
// through the implicit grant. Beyond the catalog it exposes the player-control
// endpoints (device listing, transfer, play/pause/seek, player state) that the
// remote-device playback adapter drives. Positions and durations are already
// milliseconds on this API.
//
// # SoundCloud Implementation
//
// [SoundCloudService] talks to the SoundCloud API with an "OAuth <token>"
// Authorization header. Beyond the catalog it exposes [SoundCloudService.FetchStream],
// the authenticated download of a protected stream resource that the
// local-decode adapter materializes into a playable buffer.
//
// # Tokens
//
// Services never store tokens. They read the current credential through a
// [TokenFunc] on every request, so a purge by the token validator takes
// effect without re-wiring the service.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no credential available
//   - [shared.ErrTokenInvalid] : provider rejected the credential
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
package services
