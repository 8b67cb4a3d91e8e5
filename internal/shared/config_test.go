package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./singsync.db" {
			t.Errorf("expected database path ./singsync.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Storage.Driver != "local" {
			t.Errorf("expected local storage driver, got %s", config.Storage.Driver)
		}
		if config.Catalog.SearchLimit != 20 {
			t.Errorf("expected search limit 20, got %d", config.Catalog.SearchLimit)
		}
		if config.Cache.URL != "" {
			t.Errorf("expected caching disabled by default, got %s", config.Cache.URL)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "libsql://catalog.example.turso.io"

[server]
host = "0.0.0.0"
port = 8080

[storage]
driver = "hosted"
bucket = "covers"

[backend]
url = "https://backend.example.com"
timeout_seconds = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "libsql://catalog.example.turso.io" {
			t.Errorf("unexpected database path %s", config.Database.Path)
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Backend.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.Backend.Timeout())
		}
		if config.Catalog.PageSize != 10 {
			t.Errorf("expected unset keys to keep defaults, got page size %d", config.Catalog.PageSize)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected hosted config to validate, got %v", err)
		}
	})

	t.Run("LoadConfig Errors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}

		configPath := filepath.Join(t.TempDir(), "bad.toml")
		os.WriteFile(configPath, []byte("[database\npath ="), 0644)
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }},
			{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "s3" }},
			{name: "local without root", mutate: func(c *Config) { c.Storage.Root = "" }},
			{name: "hosted without url", mutate: func(c *Config) { c.Storage.Driver = "hosted" }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("Durations Default", func(t *testing.T) {
		if (CacheConfig{}).TTL() != 5*time.Minute {
			t.Error("expected 5m default TTL")
		}
		if (BackendConfig{}).Timeout() != 30*time.Second {
			t.Error("expected 30s default timeout")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("SINGSYNC_DATABASE_PATH", "/tmp/env.db")
		t.Setenv("SINGSYNC_BACKEND_SERVICE_KEY", "secret")
		t.Setenv("SINGSYNC_SERVER_PORT", "9090")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
		if config.Backend.ServiceKey != "secret" {
			t.Errorf("expected env service key, got %s", config.Backend.ServiceKey)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected env port 9090, got %d", config.Server.Port)
		}
	})

	t.Run("Bad Integer", func(t *testing.T) {
		t.Setenv("SINGSYNC_SERVER_PORT", "eighty")

		if err := DefaultConfig().ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Env File", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("SINGSYNC_STORAGE_BUCKET=from-file\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("SINGSYNC_STORAGE_BUCKET", "")
		os.Unsetenv("SINGSYNC_STORAGE_BUCKET")

		if err := LoadEnvFile(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnvFile() error = %v", err)
		}

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}
		if config.Storage.Bucket != "from-file" {
			t.Errorf("expected bucket from env file, got %s", config.Storage.Bucket)
		}
	})
}
