package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"tidalsplit/internal/services"
	"tidalsplit/internal/shared"
	"tidalsplit/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	tidal      services.Service
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.SplitEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Tidal      services.Service
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		tidal:      opts.Tidal,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     tasks.NewSplitEngine(opts.Tidal),
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		splitCommand, authCommand, playlistsCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// applyConfigFlag reloads the runner's config, and with it the Tidal
// service, when the command was given an explicit --config path.
func (r *Runner) applyConfigFlag(cmd *cli.Command) error {
	if !cmd.IsSet("config") {
		return nil
	}

	configPath := cmd.String("config")
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}

	r.config = config
	r.configPath = configPath

	if config.Credentials.Tidal.ClientID != "" && config.Credentials.Tidal.ClientSecret != "" {
		svc, err := services.NewTidalService(config.Credentials.Tidal.Map())
		if err != nil {
			return fmt.Errorf("failed to create Tidal service: %w", err)
		}
		if token := config.Credentials.Tidal.Token(); token != nil {
			if err := svc.OAuthenticate(context.Background(), token); err != nil {
				r.logger.Warnf("failed to restore saved session: %v", err)
			}
		}
		r.tidal = svc
		r.engine = tasks.NewSplitEngine(svc)
	}

	return nil
}

// saveTokens updates the Tidal credentials in the config and persists them to disk.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Credentials.Tidal.Update(token); err != nil {
		return fmt.Errorf("failed to update tidal configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
