// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// splitFlags are shared between the split and tui commands.
func splitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.IntFlag{
			Name:    "segments",
			Aliases: []string{"n"},
			Usage:   "Number of playlists to split into",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Name prefix for created playlists",
		},
		&cli.StringFlag{
			Name:  "naming-pattern",
			Usage: "Name template ({prefix}, {index}, {total}, {playlist})",
		},
		&cli.StringFlag{
			Name:  "description-pattern",
			Usage: "Description template ({prefix}, {index}, {total}, {playlist})",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Add tracks in paced batches of this size (0 adds each segment at once)",
		},
	}
}

// splitCommand splits a playlist into smaller ones
func splitCommand(r *Runner) *cli.Command {
	flags := append(splitFlags(),
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Show the planned playlists without creating anything",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	)

	return &cli.Command{
		Name:  "split",
		Usage: "Split a Tidal playlist into smaller playlists",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist_url"},
		},
		Flags:  flags,
		Action: r.Split,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Tidal authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Tidal using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:  "flow",
						Usage: "OAuth flow to use (device or code)",
						Value: "device",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand handles Tidal playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Tidal playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your Tidal playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist with all its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist_url"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsShow,
			},
		},
	}
}

// setupCommand writes a starter configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for interactive splitting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for splitting a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist_url"},
		},
		Flags:  splitFlags(),
		Action: r.TUI,
	}
}
