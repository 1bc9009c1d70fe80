package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"tidalsplit/internal/shared"
)

// Setup writes a starter config file for the user to fill in credentials.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.writePlain("Config file already exists at %s\n", configPath)
		return nil
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Created %s\n\n", configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("  1. Add your Tidal client_id and client_secret to %s\n", configPath)
	r.writePlain("     (or set TIDAL_CLIENT_ID and TIDAL_CLIENT_SECRET in the environment)\n")
	r.writePlain("  2. Run: tidalsplit auth login\n")
	r.writePlain("  3. Run: tidalsplit split <playlist_url> --segments 2\n")

	return nil
}
