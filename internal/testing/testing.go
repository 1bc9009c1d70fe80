// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"tidalsplit/internal/models"
)

// MockService is a test double for [services.Service]. Function fields
// override the default zero-value behavior when set.
type MockService struct {
	AuthenticateFunc   func(ctx context.Context, credentials map[string]string) error
	CurrentUserFunc    func(ctx context.Context) (*models.User, error)
	GetPlaylistsFunc   func(ctx context.Context) ([]models.Playlist, error)
	GetPlaylistFunc    func(ctx context.Context, playlistID string) (*models.Playlist, error)
	ExportPlaylistFunc func(ctx context.Context, playlistID string) (*models.PlaylistExport, error)
	CreatePlaylistFunc func(ctx context.Context, name, description string) (*models.Playlist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, trackIDs []string) error
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &models.User{ID: "1", Username: "mock-user", CountryCode: "US"}, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.GetPlaylistsFunc != nil {
		return m.GetPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.GetPlaylistFunc != nil {
		return m.GetPlaylistFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if m.ExportPlaylistFunc != nil {
		return m.ExportPlaylistFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description)
	}
	return &models.Playlist{ID: "mock-playlist", Name: name, Description: description}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
