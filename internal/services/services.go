// package services defines interface Service for interacting with the Tidal HTTP API
package services

import (
	"context"

	"golang.org/x/oauth2"

	"tidalsplit/internal/models"
)

// Service defines the operations the splitter needs from a music service.
type Service interface {
	// Authenticate performs authentication with the service.
	// Expects either an "access_token" or an "auth_code" in credentials.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's session info.
	CurrentUser(ctx context.Context) (*models.User, error)

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a specific playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ExportPlaylist retrieves a playlist with all its tracks, following pagination.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error)

	// CreatePlaylist creates a new, empty playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error)

	// AddTracks appends tracks to an existing playlist, preserving the given order.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g. "Tidal")
	Name() string
}

// OAuthService extends Service for providers authenticated through OAuth2.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization-code URL for the browser hand-off.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying oauth2 configuration.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a previously obtained token on the service.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// DeviceAuthorize starts the device authorization flow.
	DeviceAuthorize(ctx context.Context) (*oauth2.DeviceAuthResponse, error)

	// DeviceAccessToken polls the provider until the device code is approved,
	// the code expires, or ctx is cancelled.
	DeviceAccessToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error)
}
