package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"tidalsplit/internal/models"
	"tidalsplit/internal/shared"
	tu "tidalsplit/internal/testing"
)

const testPlaylistID = "12345678-1234-1234-1234-1234567890ab"

func newTestApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "tidalsplit",
		Commands: r.register(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			tidal := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Tidal:      tidal,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.tidal != tidal {
				t.Error("expected tidal to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be initialized")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Tidal.ClientID = "test_id"
			config.Credentials.Tidal.ClientSecret = "test_secret"

			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: configPath,
			})

			token := &oauth2.Token{
				AccessToken:  "new_access_token",
				RefreshToken: "new_refresh_token",
			}

			err := runner.saveTokens(token)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}

			if loadedConfig.Credentials.Tidal.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loadedConfig.Credentials.Tidal.AccessToken)
			}
			if loadedConfig.Credentials.Tidal.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loadedConfig.Credentials.Tidal.RefreshToken)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/tmp/test.toml",
			})

			runner.config = nil

			token := &oauth2.Token{AccessToken: "test"}
			err := runner.saveTokens(token)

			if err == nil {
				t.Fatal("expected error with nil config")
			}
			if !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "",
			})

			token := &oauth2.Token{
				AccessToken:  "new_token",
				RefreshToken: "new_refresh",
			}

			err := runner.saveTokens(token)
			if err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}

			if config.Credentials.Tidal.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles Update error", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			err := runner.saveTokens(nil)
			if err == nil {
				t.Fatal("expected error when Update fails with nil token")
			}
			if !strings.Contains(err.Error(), "failed to update tidal configuration") {
				t.Errorf("expected update error, got %v", err)
			}
		})
	})
}

func TestSplitCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("requires playlist URL", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("rejects invalid playlist URL", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split", "not a playlist"})
		if !errors.Is(err, shared.ErrInvalidPlaylistURL) {
			t.Errorf("expected ErrInvalidPlaylistURL, got %v", err)
		}
	})

	t.Run("rejects non-positive segment count", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split", testPlaylistID, "--segments", "0"})
		if !errors.Is(err, shared.ErrInvalidSegmentCount) {
			t.Errorf("expected ErrInvalidSegmentCount, got %v", err)
		}
	})

	t.Run("fails without a configured service", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split", testPlaylistID})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("splits a playlist end to end", func(t *testing.T) {
		tracks := make([]models.Track, 11)
		for i := range tracks {
			tracks[i] = models.Track{ID: string(rune('a' + i)), Title: "Track"}
		}

		var createdNames []string
		addCalls := 0
		mock := &tu.MockService{
			ExportPlaylistFunc: func(_ context.Context, playlistID string) (*models.PlaylistExport, error) {
				return &models.PlaylistExport{
					Playlist: models.Playlist{ID: playlistID, Name: "Road Trip", TrackCount: len(tracks)},
					Tracks:   tracks,
				}, nil
			},
			CreatePlaylistFunc: func(_ context.Context, name, description string) (*models.Playlist, error) {
				createdNames = append(createdNames, name)
				return &models.Playlist{ID: "new-" + name, Name: name, Description: description}, nil
			},
			AddTracksFunc: func(_ context.Context, playlistID string, trackIDs []string) error {
				addCalls++
				return nil
			},
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: mock})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split", testPlaylistID, "--segments", "2", "--prefix", "Mix"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(createdNames) != 2 {
			t.Fatalf("expected 2 playlists created, got %d", len(createdNames))
		}
		if createdNames[0] != "Mix 1 - Road Trip" {
			t.Errorf("unexpected first playlist name: %s", createdNames[0])
		}
		if addCalls != 2 {
			t.Errorf("expected 2 add calls, got %d", addCalls)
		}
		if !strings.Contains(output.String(), "Split Complete!") {
			t.Errorf("expected completion summary, got %s", output.String())
		}
	})

	t.Run("honors --config split defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		configBody := `
[split]
segments = 5
prefix = "Custom"
naming_pattern = "{prefix} {index} - {playlist}"
description_pattern = "{index} of {total}"
batch_size = 0
`
		if err := os.WriteFile(configPath, []byte(configBody), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		tracks := make([]models.Track, 10)
		for i := range tracks {
			tracks[i] = models.Track{ID: string(rune('a' + i))}
		}

		var createdNames []string
		mock := &tu.MockService{
			ExportPlaylistFunc: func(_ context.Context, playlistID string) (*models.PlaylistExport, error) {
				return &models.PlaylistExport{
					Playlist: models.Playlist{ID: playlistID, Name: "Mix", TrackCount: len(tracks)},
					Tracks:   tracks,
				}, nil
			},
			CreatePlaylistFunc: func(_ context.Context, name, description string) (*models.Playlist, error) {
				createdNames = append(createdNames, name)
				return &models.Playlist{ID: "new-" + name, Name: name}, nil
			},
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Tidal: mock})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split", testPlaylistID, "--config", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(createdNames) != 5 {
			t.Fatalf("expected 5 playlists from the flagged config, got %d", len(createdNames))
		}
		if createdNames[0] != "Custom 1 - Mix" {
			t.Errorf("expected flagged config prefix in name, got %s", createdNames[0])
		}
	})

	t.Run("rejects missing --config file", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		missing := filepath.Join(t.TempDir(), "nope.toml")
		err := app.Run(ctx, []string{"tidalsplit", "split", testPlaylistID, "--config", missing})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("dry run creates nothing", func(t *testing.T) {
		created := 0
		mock := &tu.MockService{
			ExportPlaylistFunc: func(_ context.Context, playlistID string) (*models.PlaylistExport, error) {
				return &models.PlaylistExport{
					Playlist: models.Playlist{ID: playlistID, Name: "Road Trip"},
					Tracks:   []models.Track{{ID: "1"}, {ID: "2"}, {ID: "3"}},
				}, nil
			},
			CreatePlaylistFunc: func(_ context.Context, name, description string) (*models.Playlist, error) {
				created++
				return &models.Playlist{ID: "x", Name: name}, nil
			},
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: mock})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "split", testPlaylistID, "--segments", "3", "--dry-run"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if created != 0 {
			t.Errorf("expected no playlists created during dry run, got %d", created)
		}
		if !strings.Contains(output.String(), "dry run") {
			t.Errorf("expected dry run header, got %s", output.String())
		}
	})
}

func TestAuthStatusCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("reports unconfigured service", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		app := newTestApp(runner)

		if err := app.Run(ctx, []string{"tidalsplit", "auth", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Not configured") {
			t.Errorf("expected unconfigured message, got %s", output.String())
		}
	})

	t.Run("reports authenticated user", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: &tu.MockService{}})
		app := newTestApp(runner)

		if err := app.Run(ctx, []string{"tidalsplit", "auth", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Authenticated") {
			t.Errorf("expected authenticated message, got %s", result)
		}
		if !strings.Contains(result, "mock-user") {
			t.Errorf("expected username in output, got %s", result)
		}
	})

	t.Run("reports failed session check", func(t *testing.T) {
		output := &bytes.Buffer{}
		mock := &tu.MockService{
			CurrentUserFunc: func(_ context.Context) (*models.User, error) {
				return nil, shared.ErrNotAuthenticated
			},
		}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: mock})
		app := newTestApp(runner)

		if err := app.Run(ctx, []string{"tidalsplit", "auth", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Not authenticated") {
			t.Errorf("expected not authenticated message, got %s", output.String())
		}
	})
}

func TestPlaylistsCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("list requires a configured service", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "playlists", "list"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("list prints playlists", func(t *testing.T) {
		mock := &tu.MockService{
			GetPlaylistsFunc: func(_ context.Context) ([]models.Playlist, error) {
				return []models.Playlist{
					{ID: "1", Name: "First", TrackCount: 10, Public: true},
					{ID: "2", Name: "Second", TrackCount: 20},
				}, nil
			},
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: mock})
		app := newTestApp(runner)

		if err := app.Run(ctx, []string{"tidalsplit", "playlists", "list"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Found 2 playlists") {
			t.Errorf("expected playlist count, got %s", result)
		}
		if !strings.Contains(result, "First") || !strings.Contains(result, "Second") {
			t.Errorf("expected playlist names, got %s", result)
		}
	})

	t.Run("list respects limit", func(t *testing.T) {
		mock := &tu.MockService{
			GetPlaylistsFunc: func(_ context.Context) ([]models.Playlist, error) {
				return []models.Playlist{
					{ID: "1", Name: "First"},
					{ID: "2", Name: "Second"},
					{ID: "3", Name: "Third"},
				}, nil
			},
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: mock})
		app := newTestApp(runner)

		if err := app.Run(ctx, []string{"tidalsplit", "playlists", "list", "--limit", "1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Found 1 playlists") {
			t.Errorf("expected limited count, got %s", result)
		}
		if strings.Contains(result, "Third") {
			t.Errorf("expected third playlist to be omitted, got %s", result)
		}
	})

	t.Run("show prints tracks", func(t *testing.T) {
		mock := &tu.MockService{
			ExportPlaylistFunc: func(_ context.Context, playlistID string) (*models.PlaylistExport, error) {
				return &models.PlaylistExport{
					Playlist: models.Playlist{ID: playlistID, Name: "Road Trip"},
					Tracks: []models.Track{
						{ID: "1", Title: "Song A", Artist: "Artist A", Album: "Album A"},
						{ID: "2", Title: "Song B", Artist: "Artist B"},
					},
				}, nil
			},
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Tidal: mock})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "playlists", "show", testPlaylistID, "--pretty=false"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Road Trip") {
			t.Errorf("expected playlist name, got %s", result)
		}
		if !strings.Contains(result, "Artist A - Song A") {
			t.Errorf("expected track listing, got %s", result)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("creates config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "setup", "--config", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, configPath)
		if !strings.Contains(output.String(), "Next steps") {
			t.Errorf("expected next steps in output, got %s", output.String())
		}
	})

	t.Run("does not overwrite existing config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("# existing"), 0600); err != nil {
			t.Fatalf("failed to seed config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		app := newTestApp(runner)

		err := app.Run(ctx, []string{"tidalsplit", "setup", "--config", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, configPath)
		if content != "# existing" {
			t.Errorf("expected existing config to be preserved, got %q", content)
		}
	})
}
