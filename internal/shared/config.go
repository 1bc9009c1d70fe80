package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Split       SplitConfig       `toml:"split"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Tidal TidalConfig `toml:"tidal"`
}

// TidalConfig contains Tidal API credentials and saved OAuth tokens.
type TidalConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SplitConfig contains defaults for the split command flags.
type SplitConfig struct {
	Segments           int    `toml:"segments"`
	Prefix             string `toml:"prefix"`
	NamingPattern      string `toml:"naming_pattern"`
	DescriptionPattern string `toml:"description_pattern"`
	BatchSize          int    `toml:"batch_size"`
}

// Map converts TidalConfig to the credentials map expected by service constructors.
func (t TidalConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     t.ClientID,
		"client_secret": t.ClientSecret,
		"redirect_uri":  t.RedirectURI,
	}
}

// Token returns the saved OAuth token, or nil if none has been stored.
func (t TidalConfig) Token() *oauth2.Token {
	if t.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.TokenExpiry,
	}
}

// Update stores the fields of an OAuth token on the config.
func (t *TidalConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}
	t.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		t.RefreshToken = token.RefreshToken
	}
	t.TokenExpiry = token.Expiry
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory and TIDAL_CLIENT_ID / TIDAL_CLIENT_SECRET
// environment variables override the file's credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyEnvOverrides(&config)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnvOverrides(&config)
	return &config
}

// SaveConfig writes the configuration back to the specified path.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func applyEnvOverrides(config *Config) {
	// Ignore a missing .env; explicit environment still applies.
	_ = godotenv.Load()

	if v := os.Getenv("TIDAL_CLIENT_ID"); v != "" {
		config.Credentials.Tidal.ClientID = v
	}
	if v := os.Getenv("TIDAL_CLIENT_SECRET"); v != "" {
		config.Credentials.Tidal.ClientSecret = v
	}
}
