package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./mixtape.db" {
			t.Errorf("expected database path ./mixtape.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Providers.Catalog.Endpoint != "https://itunes.apple.com/search" {
			t.Errorf("unexpected catalog endpoint %s", config.Providers.Catalog.Endpoint)
		}

		if config.Providers.Catalog.DefaultTerm != "top hits" {
			t.Errorf("expected default term top hits, got %s", config.Providers.Catalog.DefaultTerm)
		}

		if config.Providers.Yandex.BaseURL != "https://api.music.yandex.net" {
			t.Errorf("unexpected yandex base url %s", config.Providers.Yandex.BaseURL)
		}

		if config.Playback.MPVPath != "mpv" {
			t.Errorf("expected mpv path mpv, got %s", config.Playback.MPVPath)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[providers.catalog]
endpoint = "http://localhost:9999/search"
limit = 5

[providers.yandex]
token = "file-token"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		t.Setenv(EnvYandexToken, "")

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.ServerAddr() != "0.0.0.0:8080" {
			t.Errorf("expected server addr 0.0.0.0:8080, got %s", config.ServerAddr())
		}

		if config.Providers.Catalog.Limit != 5 {
			t.Errorf("expected catalog limit 5, got %d", config.Providers.Catalog.Limit)
		}

		if config.Providers.Catalog.DefaultTerm != "top hits" {
			t.Errorf("missing keys should keep defaults, got default term %q", config.Providers.Catalog.DefaultTerm)
		}

		if config.Providers.Yandex.Token != "file-token" {
			t.Errorf("expected yandex token file-token, got %s", config.Providers.Yandex.Token)
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		t.Setenv(EnvYandexToken, "env-token")
		t.Setenv(EnvSessionSecret, "env-secret")
		t.Setenv(EnvDatabasePath, "/tmp/env.db")

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Providers.Yandex.Token != "env-token" {
			t.Errorf("expected env token, got %s", config.Providers.Yandex.Token)
		}
		if config.Session.Secret != "env-secret" {
			t.Errorf("expected env secret, got %s", config.Session.Secret)
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Session.Token = "signed.jwt.value"
		config.Session.UserID = "user-1"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		info, err := os.Stat(configPath)
		if err != nil {
			t.Fatalf("saved config should exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected mode 0600, got %o", perm)
		}

		t.Setenv(EnvSessionSecret, "")
		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Session.Token != "signed.jwt.value" || loaded.Session.UserID != "user-1" {
			t.Errorf("session not persisted: %+v", loaded.Session)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "missing endpoint", mutate: func(c *Config) { c.Providers.Catalog.Endpoint = "" }},
			{name: "negative limit", mutate: func(c *Config) { c.Providers.Catalog.Limit = -1 }},
			{name: "negative rate", mutate: func(c *Config) { c.Providers.RequestsPerSecond = -2 }},
			{name: "bad timeout", mutate: func(c *Config) { c.Providers.SearchTimeout = "soon" }},
			{name: "negative ttl", mutate: func(c *Config) { c.Session.TTL = "-1h" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}

func TestYandexConfig(t *testing.T) {
	t.Run("HasOAuthClient", func(t *testing.T) {
		if (YandexConfig{ClientID: "id"}).HasOAuthClient() {
			t.Error("expected secret to be required")
		}
		if !(YandexConfig{ClientID: "id", ClientSecret: "secret"}).HasOAuthClient() {
			t.Error("expected client to be configured")
		}
	})

	t.Run("Update", func(t *testing.T) {
		var cfg YandexConfig
		if err := cfg.Update(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for nil token, got %v", err)
		}
		if err := cfg.Update(&oauth2.Token{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for empty token, got %v", err)
		}
		if err := cfg.Update(&oauth2.Token{AccessToken: "abc"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Token != "abc" {
			t.Errorf("expected token to be stored, got %q", cfg.Token)
		}
	})
}

func TestParseDuration(t *testing.T) {
	if d, err := ParseDuration(""); err != nil || d != 0 {
		t.Errorf("ParseDuration(\"\") = %v, %v; want 0, nil", d, err)
	}
	if d, err := ParseDuration("1m30s"); err != nil || d != 90*time.Second {
		t.Errorf("ParseDuration(1m30s) = %v, %v", d, err)
	}
	if _, err := ParseDuration("-5s"); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("does not override existing variables", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		content := EnvYandexToken + "=from-file\n" + EnvMPVPath + "=/opt/mpv\n"
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		t.Setenv(EnvYandexToken, "from-env")
		t.Setenv(EnvMPVPath, "")
		os.Unsetenv(EnvMPVPath)

		if err := LoadEnv(envPath); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}

		if got := os.Getenv(EnvYandexToken); got != "from-env" {
			t.Errorf("expected existing value to win, got %s", got)
		}
		if got := os.Getenv(EnvMPVPath); got != "/opt/mpv" {
			t.Errorf("expected value from file, got %s", got)
		}
	})
}
