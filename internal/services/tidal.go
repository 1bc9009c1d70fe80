// Tidal API implementation of [Service]
//
// Endpoints follow the v1 API used by the official clients:
// playlists are addressed by UUID, track pages by limit/offset, and
// playlist mutations are guarded with ETag preconditions.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"tidalsplit/internal/models"
	"tidalsplit/internal/shared"
)

const (
	tidalAuthURL       = "https://login.tidal.com/authorize"
	tidalTokenURL      = "https://auth.tidal.com/v1/oauth2/token"
	tidalDeviceAuthURL = "https://auth.tidal.com/v1/oauth2/device_authorization"
	tidalBaseURL       = "https://api.tidal.com/v1"

	// Page size for track pagination (the API caps pages at 100).
	trackPageSize = 100
)

type tidalCreator struct {
	ID int64 `json:"id"`
}

type tidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tidalAlbum struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TidalTrack represents a track resource.
type TidalTrack struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Duration int         `json:"duration"`
	ISRC     string      `json:"isrc"`
	Artist   tidalArtist `json:"artist"`
	Album    tidalAlbum  `json:"album"`
	URL      string      `json:"url"`
}

// TidalPlaylist represents a playlist resource.
type TidalPlaylist struct {
	UUID           string       `json:"uuid"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	NumberOfTracks int          `json:"numberOfTracks"`
	PublicPlaylist bool         `json:"publicPlaylist"`
	URL            string       `json:"url"`
	Creator        tidalCreator `json:"creator"`
}

// TidalPaginatedTracks is a page of playlist tracks.
type TidalPaginatedTracks struct {
	Items              []TidalTrack `json:"items"`
	Limit              int          `json:"limit"`
	Offset             int          `json:"offset"`
	TotalNumberOfItems int          `json:"totalNumberOfItems"`
}

// TidalPaginatedPlaylists is a page of user playlists.
type TidalPaginatedPlaylists struct {
	Items              []TidalPlaylist `json:"items"`
	Limit              int             `json:"limit"`
	Offset             int             `json:"offset"`
	TotalNumberOfItems int             `json:"totalNumberOfItems"`
}

type tidalSession struct {
	SessionID   string `json:"sessionId"`
	UserID      int64  `json:"userId"`
	CountryCode string `json:"countryCode"`
}

// TidalService implements the Service interface against the Tidal API.
// Uses [oauth2] for authentication (device flow or authorization code).
type TidalService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	credentials map[string]string

	baseURL string
	userID  int64
	country string

	// Last seen ETag per playlist UUID, sent back as If-None-Match on mutations.
	etags map[string]string
}

// NewTidalService creates a new Tidal service with the given OAuth2 credentials.
func NewTidalService(credentials map[string]string) (*TidalService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"r_usr", "w_usr"},
		Endpoint: oauth2.Endpoint{
			AuthURL:       tidalAuthURL,
			TokenURL:      tidalTokenURL,
			DeviceAuthURL: tidalDeviceAuthURL,
		},
	}

	return &TidalService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		baseURL:     tidalBaseURL,
		etags:       map[string]string{},
	}, nil
}

func (s *TidalService) Name() string {
	return "Tidal"
}

// Authenticate performs OAuth2 authentication. Expects either an
// "access_token" or an "auth_code" in credentials.
func (s *TidalService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{AccessToken: accessToken})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate installs the token and configures the refreshing HTTP client.
func (s *TidalService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrAuthFailed)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// GetAuthURL returns the OAuth2 authorization URL for the browser hand-off.
func (s *TidalService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the underlying oauth2 configuration.
func (s *TidalService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// DeviceAuthorize starts the device authorization flow.
func (s *TidalService) DeviceAuthorize(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	resp, err := s.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device authorization: %v", shared.ErrAuthFailed, err)
	}
	return resp, nil
}

// DeviceAccessToken polls the token endpoint until the user approves the
// device code. The poll is bounded by the code's expiry and by ctx.
func (s *TidalService) DeviceAccessToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	token, err := s.config.DeviceAccessToken(ctx, da,
		oauth2.SetAuthURLParam("scope", strings.Join(s.config.Scopes, " ")))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: device authorization not completed", shared.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// doRequest performs an authenticated request against the Tidal API.
//
// The form is sent urlencoded for POSTs. The playlist ETag, when present in
// the response headers, is remembered keyed by etagKey.
func (s *TidalService) doRequest(ctx context.Context, method, endpoint string, form url.Values, etagKey string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint
	if s.country != "" {
		sep := "?"
		if strings.Contains(apiURL, "?") {
			sep = "&"
		}
		apiURL += sep + "countryCode=" + url.QueryEscape(s.country)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if etag, ok := s.etags[etagKey]; ok && etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if etagKey != "" {
		if etag := resp.Header.Get("ETag"); etag != "" {
			s.etags[etagKey] = etag
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", shared.ErrPlaylistNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", shared.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the current session's user id and country code.
//
// The result is cached on the service for later playlist creation.
func (s *TidalService) CurrentUser(ctx context.Context) (*models.User, error) {
	var session tidalSession
	if err := s.doRequest(ctx, http.MethodGet, "/sessions", nil, "", &session); err != nil {
		return nil, err
	}

	s.userID = session.UserID
	s.country = session.CountryCode

	return &models.User{
		ID:          strconv.FormatInt(session.UserID, 10),
		CountryCode: session.CountryCode,
	}, nil
}

// ensureSession resolves the user id and country code if not yet known.
func (s *TidalService) ensureSession(ctx context.Context) error {
	if s.userID != 0 {
		return nil
	}
	_, err := s.CurrentUser(ctx)
	return err
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *TidalService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	var all []models.Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/users/%d/playlists?limit=%d&offset=%d", s.userID, limit, offset)

		var page TidalPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, "", &page); err != nil {
			return nil, err
		}

		for _, tp := range page.Items {
			all = append(all, toPlaylist(tp))
		}

		offset += len(page.Items)
		if len(page.Items) < limit || offset >= page.TotalNumberOfItems {
			break
		}
	}

	return all, nil
}

// GetPlaylist retrieves a specific playlist by UUID.
func (s *TidalService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	tp, err := s.fetchPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	pl := toPlaylist(*tp)
	return &pl, nil
}

func (s *TidalService) fetchPlaylist(ctx context.Context, playlistID string) (*TidalPlaylist, error) {
	var tp TidalPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, playlistID, &tp); err != nil {
		return nil, err
	}
	return &tp, nil
}

// ExportPlaylist retrieves a playlist with all of its tracks, following
// pagination in pages of [trackPageSize].
func (s *TidalService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	tp, err := s.fetchPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, trackPageSize, offset)

		var page TidalPaginatedTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, "", &page); err != nil {
			return nil, fmt.Errorf("failed to fetch tracks at offset %d: %w", offset, err)
		}

		if len(page.Items) == 0 {
			break
		}

		for _, tt := range page.Items {
			tracks = append(tracks, toTrack(tt))
		}

		if len(page.Items) < trackPageSize {
			break
		}
		offset += trackPageSize
	}

	return &models.PlaylistExport{
		Playlist: toPlaylist(*tp),
		Tracks:   tracks,
	}, nil
}

// CreatePlaylist creates a new, empty playlist owned by the current user.
func (s *TidalService) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("title", name)
	form.Set("description", description)

	var tp TidalPlaylist
	endpoint := fmt.Sprintf("/users/%d/playlists", s.userID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, form, "", &tp); err != nil {
		return nil, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	pl := toPlaylist(tp)
	return &pl, nil
}

// AddTracks appends the given track ids to a playlist in order.
//
// The playlist's last known ETag rides along as If-None-Match; Tidal uses
// it to reject concurrent modifications.
func (s *TidalService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	if _, ok := s.etags[playlistID]; !ok {
		// First mutation on this playlist: fetch to capture the ETag.
		if _, err := s.fetchPlaylist(ctx, playlistID); err != nil {
			return err
		}
	}

	form := url.Values{}
	form.Set("trackIds", strings.Join(trackIDs, ","))
	form.Set("onArtifactNotFound", "FAIL")
	form.Set("onDupes", "ADD")

	endpoint := fmt.Sprintf("/playlists/%s/items", playlistID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, form, playlistID, nil); err != nil {
		return fmt.Errorf("failed to add %d tracks: %w", len(trackIDs), err)
	}

	return nil
}

func toPlaylist(tp TidalPlaylist) models.Playlist {
	url := tp.URL
	if url == "" && tp.UUID != "" {
		url = "https://tidal.com/browse/playlist/" + tp.UUID
	}
	return models.Playlist{
		ID:          tp.UUID,
		Name:        tp.Title,
		Description: tp.Description,
		TrackCount:  tp.NumberOfTracks,
		Public:      tp.PublicPlaylist,
		URL:         url,
	}
}

func toTrack(tt TidalTrack) models.Track {
	return models.Track{
		ID:       strconv.FormatInt(tt.ID, 10),
		Title:    tt.Title,
		Artist:   tt.Artist.Name,
		Album:    tt.Album.Title,
		Duration: tt.Duration,
		ISRC:     tt.ISRC,
	}
}
