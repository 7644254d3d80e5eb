package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix scopes every environment override.
const EnvPrefix = "SPOTIFY_TOOLS_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Spotify     SpotifyConfig     `toml:"spotify"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyCredentials `toml:"spotify"`
}

// SpotifyCredentials contains Spotify API credentials and the default playlist.
type SpotifyCredentials struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	PlaylistID   string `toml:"playlist_id"`
}

// SpotifyConfig tunes the API session.
type SpotifyConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	AutoRetry         bool    `toml:"auto_retry"`
	TokenCache        string  `toml:"token_cache"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (c SpotifyCredentials) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
	}
}

// Validate reports missing client credentials.
func (c SpotifyCredentials) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, EnvPrefix+"CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, EnvPrefix+"CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

// Timeout returns the per-request timeout, defaulting to 30 seconds.
func (c SpotifyConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// LoadConfigWithEnv loads path when it exists (defaults otherwise), then applies .env and environment overrides.
func LoadConfigWithEnv(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	ApplyEnvOverrides(config)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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

// LoadDotEnv loads variables from the given .env files into the process environment.
//
// Missing files are skipped and variables already set are never overridden.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, path, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies SPOTIFY_TOOLS_* environment variables to the config.
//
// Empty values are treated as unset.
func ApplyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"CLIENT_ID":     &cfg.Credentials.Spotify.ClientID,
		"CLIENT_SECRET": &cfg.Credentials.Spotify.ClientSecret,
		"REDIRECT_URI":  &cfg.Credentials.Spotify.RedirectURI,
		"PLAYLIST_ID":   &cfg.Credentials.Spotify.PlaylistID,
		"TOKEN_CACHE":   &cfg.Spotify.TokenCache,
		"DATABASE_PATH": &cfg.Database.Path,
		"LOG_LEVEL":     &cfg.Log.Level,
	}

	for key, target := range overrides {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*target = v
		}
	}
}
