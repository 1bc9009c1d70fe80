package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"tidalsplit/internal/shared"
	"tidalsplit/internal/ui"
)

// TUI launches the interactive terminal UI for splitting a playlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("playlist_url")
	if playlistURL == "" {
		return fmt.Errorf("%w: playlist URL or ID is required", shared.ErrMissingArgument)
	}

	playlistID, err := shared.ExtractPlaylistID(playlistURL)
	if err != nil {
		return err
	}

	if err := r.applyConfigFlag(cmd); err != nil {
		return err
	}

	opts := r.splitOptions(cmd)
	if opts.Segments <= 0 {
		return fmt.Errorf("%w: --segments must be a positive number, got %d", shared.ErrInvalidSegmentCount, opts.Segments)
	}

	if r.tidal == nil {
		return fmt.Errorf("%w: Tidal service not initialized, set credentials in config.toml", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: split engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tidalsplit-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, playlistID, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
