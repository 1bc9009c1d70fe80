package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tidalsplit/internal/shared"
	"tidalsplit/internal/tasks"
)

// splitOptions builds split options from flags, falling back to config values.
func (r *Runner) splitOptions(cmd *cli.Command) tasks.Options {
	opts := tasks.Options{
		Segments:           r.config.Split.Segments,
		Prefix:             r.config.Split.Prefix,
		NamingPattern:      r.config.Split.NamingPattern,
		DescriptionPattern: r.config.Split.DescriptionPattern,
		BatchSize:          r.config.Split.BatchSize,
	}

	if cmd.IsSet("segments") {
		opts.Segments = int(cmd.Int("segments"))
	}
	if cmd.IsSet("prefix") {
		opts.Prefix = cmd.String("prefix")
	}
	if cmd.IsSet("naming-pattern") {
		opts.NamingPattern = cmd.String("naming-pattern")
	}
	if cmd.IsSet("description-pattern") {
		opts.DescriptionPattern = cmd.String("description-pattern")
	}
	if cmd.IsSet("batch-size") {
		opts.BatchSize = int(cmd.Int("batch-size"))
	}

	return opts
}

// Split fetches a playlist, partitions it, and creates the segment playlists.
func (r *Runner) Split(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("playlist_url")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	dryRun := cmd.Bool("dry-run")

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

	r.logger.Info("splitting playlist", "playlist", playlistID, "segments", opts.Segments)

	if dryRun {
		plan, err := r.engine.Plan(ctx, playlistID, opts)
		if err != nil {
			return err
		}

		if useJSON {
			return r.writeJSON(plan, pretty)
		}

		r.writePlainHeader("Split Plan (dry run)")
		r.writePlain("Source: %s (%d tracks)\n\n", plan.Source.Playlist.Name, len(plan.Source.Tracks))
		for _, seg := range plan.Segments {
			r.writePlain("%d. %s\n", seg.Segment.Index, seg.Name)
			r.writePlain("   Description: %s\n", seg.Description)
			r.writePlain("   Tracks: %d\n", len(seg.Segment.Tracks))
		}
		r.writePlain("\nNothing was created. Re-run without --dry-run to split.\n")
		return nil
	}

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if useJSON {
		close(done)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range progressCh {
				switch update.Phase {
				case tasks.FetchSource, tasks.PartitionTracks:
					r.writePlain("📥 %s\n", update.Message)
				case tasks.CreatePlaylist:
					r.writePlain("\n📝 %s\n", update.Message)
				case tasks.AddTracks:
					r.writePlain("   %s\n", update.Message)
				case tasks.SegmentDone:
					r.writePlain("   ✓ %s\n", update.Message)
				}
			}
		}()
	}

	result, err := r.engine.Run(ctx, progressCh, playlistID, opts)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if result != nil && len(result.Created) > 0 && !useJSON {
		r.writePlain("\n")
		r.writePlainHeader("Split Complete!")
		r.writePlain("Source: %s (%d tracks)\n", result.Source.Playlist.Name, result.TotalTracks)
		r.writePlain("Created %d playlists, %d/%d tracks added\n\n", len(result.Created), result.TracksAdded, result.TotalTracks)
		for _, created := range result.Created {
			r.writePlain("  %s (%d tracks)\n", created.Playlist.Name, created.TracksAdded)
			if created.Playlist.URL != "" {
				r.writePlain("    %s\n", created.Playlist.URL)
			}
		}
	}

	if err != nil {
		if result != nil && len(result.Created) > 0 && !useJSON {
			r.writePlain("\n⚠ Split did not finish: %v\n", err)
		}
		return err
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	return nil
}
