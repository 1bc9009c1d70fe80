// Package services defines the [Service] interface for the music provider and implements it for Tidal.
//
// # Service Interface
//
// The splitter only ever sequences provider calls: fetch a playlist, create
// playlists, add tracks. The interface keeps that boundary mockable.
//
// # Tidal Implementation
//
// [TidalService] uses OAuth2 for authentication, with two flows:
//
//   - device flow (default): the user approves a short code at link.tidal.com
//     while the CLI polls the token endpoint, bounded by the code's expiry
//   - authorization code: browser redirect to a local callback server
//
// The [oauth2] client refreshes expired access tokens transparently when a
// refresh token is present.
//
// Playlist mutations carry an If-None-Match header with the playlist's last
// seen ETag, matching how Tidal detects concurrent edits.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : 401 from the API, reauthorization needed
//   - [shared.ErrRateLimited] : 429 from the API
//   - [shared.ErrPlaylistNotFound] : playlist UUID not found
//   - [shared.ErrAPIRequest] : any other request failure
package services
