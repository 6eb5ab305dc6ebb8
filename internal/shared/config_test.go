package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./moviemate.db" {
			t.Errorf("expected database path ./moviemate.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "http://localhost:8000/api" {
			t.Errorf("expected base URL http://localhost:8000/api, got %s", config.API.BaseURL)
		}

		if config.Ratings.Min != 0 || config.Ratings.Max != 5 {
			t.Errorf("expected rating bounds 0..5, got %v..%v", config.Ratings.Min, config.Ratings.Max)
		}

		if config.Browse.PageSize != 12 {
			t.Errorf("expected page size 12, got %d", config.Browse.PageSize)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

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

		testConfig := `[api]
base_url = "https://moviemate.example.com/api"
requests_per_second = 2.5

[database]
path = "/custom/path.db"

[ratings]
min = 1.0
max = 10.0
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://moviemate.example.com/api" {
			t.Errorf("expected custom base URL, got %s", config.API.BaseURL)
		}
		if config.API.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 requests per second, got %v", config.API.RequestsPerSecond)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Ratings.Max != 10 {
			t.Errorf("expected rating max 10, got %v", config.Ratings.Max)
		}
		if config.Browse.PageSize != 12 {
			t.Errorf("expected unset page size to keep default 12, got %d", config.Browse.PageSize)
		}
	})

	t.Run("LoadConfig rejects inverted rating bounds", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[ratings]\nmin = 5.0\nmax = 1.0\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
