package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"tidalsplit/internal/services"
	"tidalsplit/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	var tidalService services.Service

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.Tidal.ClientID != "" && config.Credentials.Tidal.ClientSecret != "" {
		if svc, err := services.NewTidalService(config.Credentials.Tidal.Map()); err == nil {
			if token := config.Credentials.Tidal.Token(); token != nil {
				if err := svc.OAuthenticate(context.Background(), token); err != nil {
					logger.Warnf("failed to restore saved session: %v", err)
				}
			}
			tidalService = svc
		} else {
			logger.Warnf("failed to create Tidal service: %v", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Tidal:      tidalService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tidalsplit",
		Usage:    "Split a Tidal playlist into smaller playlists",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired) {
			logger.Error(err)
			logger.Print("run `tidalsplit auth login` to authenticate")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
