package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvYandexToken   = "YANDEX_MUSIC_TOKEN"
	EnvSessionSecret = "MIXTAPE_SESSION_SECRET"
	EnvDatabasePath  = "MIXTAPE_DATABASE"
	EnvMPVPath       = "MIXTAPE_MPV"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Providers ProvidersConfig `toml:"providers"`
	Playback  PlaybackConfig  `toml:"playback"`
	Session   SessionConfig   `toml:"session"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// ProvidersConfig contains per-provider endpoints and credentials.
type ProvidersConfig struct {
	Catalog CatalogConfig `toml:"catalog"`
	Yandex  YandexConfig  `toml:"yandex"`
	// RequestsPerSecond caps outgoing provider requests; zero disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// SearchTimeout is the wall-clock budget for one catalog request, e.g. "10s".
	SearchTimeout string `toml:"search_timeout"`
}

// CatalogConfig configures the preview catalog (iTunes Search compatible).
type CatalogConfig struct {
	Endpoint    string `toml:"endpoint"`
	Limit       int    `toml:"limit"`
	DefaultTerm string `toml:"default_term"`
}

// YandexConfig contains Yandex Music API settings.
//
// Token can be pasted directly or obtained through the OAuth client fields with "mixtape auth yandex".
type YandexConfig struct {
	BaseURL      string `toml:"base_url"`
	Token        string `toml:"token"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// HasOAuthClient reports whether the OAuth client credentials are configured.
func (y YandexConfig) HasOAuthClient() bool {
	return y.ClientID != "" && y.ClientSecret != ""
}

// Update stores the access token obtained from the authorization code flow.
func (y *YandexConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", ErrInvalidArgument)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token has no access token", ErrInvalidCredentials)
	}
	y.Token = token.AccessToken
	return nil
}

// PlaybackConfig contains settings for the audio mechanism.
type PlaybackConfig struct {
	MPVPath        string `toml:"mpv_path"`
	AudioDevice    string `toml:"audio_device"`
	AcquireTimeout string `toml:"acquire_timeout"`
}

// SessionConfig holds the signed credential of the logged-in user.
type SessionConfig struct {
	Token  string `toml:"token"`
	UserID string `toml:"user_id"`
	Secret string `toml:"secret"`
	TTL    string `toml:"ttl"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains settings for the rotating log file used by the TUI.
type LogConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig]. Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
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

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the configuration to path, replacing any existing file.
//
// The file holds the session credential, so it is written with owner-only permissions.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnv loads a .env file from the working directory when one exists.
//
// Variables already present in the environment are never overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides config values with their environment variables when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvYandexToken); v != "" {
		c.Providers.Yandex.Token = v
	}
	if v := os.Getenv(EnvSessionSecret); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvMPVPath); v != "" {
		c.Playback.MPVPath = v
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Providers.Catalog.Endpoint == "" {
		return fmt.Errorf("%w: providers.catalog.endpoint is required", ErrInvalidConfig)
	}
	if c.Providers.Catalog.Limit < 0 {
		return fmt.Errorf("%w: providers.catalog.limit must be non-negative", ErrInvalidConfig)
	}
	if c.Providers.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: providers.requests_per_second must be non-negative", ErrInvalidConfig)
	}
	for key, v := range map[string]string{
		"providers.search_timeout": c.Providers.SearchTimeout,
		"playback.acquire_timeout": c.Playback.AcquireTimeout,
		"session.ttl":              c.Session.TTL,
	} {
		if _, err := ParseDuration(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
	}
	return nil
}

// ServerAddr returns the host:port address the HTTP server listens on.
func (c *Config) ServerAddr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ParseDuration parses a Go duration string. An empty string is zero, meaning "no limit".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must be non-negative", s)
	}
	return d, nil
}
