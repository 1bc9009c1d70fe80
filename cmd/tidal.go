package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tidalsplit/internal/shared"
)

// PlaylistsList lists the authenticated user's Tidal playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.tidal == nil {
		return fmt.Errorf("%w: Tidal service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing tidal playlists with limit %v", limit)

	playlists, err := r.tidal.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && int(limit) < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// PlaylistsShow prints a playlist with all its tracks.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("playlist_url")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if playlistURL == "" {
		return fmt.Errorf("%w: playlist URL or ID is required", shared.ErrMissingArgument)
	}

	playlistID, err := shared.ExtractPlaylistID(playlistURL)
	if err != nil {
		return err
	}

	if r.tidal == nil {
		return fmt.Errorf("%w: Tidal service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("showing tidal playlist %v", playlistID)

	export, err := r.tidal.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(export, pretty)
	}

	r.writePlain("Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		r.writePlain("Description: %s\n", export.Playlist.Description)
	}

	r.writePlain("Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		if track.ISRC != "" {
			r.writePlain("   ISRC: %s\n", track.ISRC)
		}
	}

	return nil
}
