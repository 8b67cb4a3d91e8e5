package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Backend  BackendConfig  `toml:"backend"`
	Cache    CacheConfig    `toml:"cache"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
//
// Path is either a SQLite file path (or ":memory:") or a libsql:// / https:// URL.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	AuthToken    string `toml:"auth_token"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string  `toml:"host"`
	Port           int     `toml:"port"`
	MaxUploadMB    int64   `toml:"max_upload_mb"`
	UploadRate     float64 `toml:"upload_rate"`
	UploadBurst    int     `toml:"upload_burst"`
	ReadTimeoutSec int     `toml:"read_timeout_seconds"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects where published audio and covers are written.
//
// Driver "local" writes under Root and serves from PublicURL; "hosted" uploads to the backend's object storage.
type StorageConfig struct {
	Driver       string `toml:"driver"`
	Root         string `toml:"root"`
	PublicURL    string `toml:"public_url"`
	Bucket       string `toml:"bucket"`
	CacheControl string `toml:"cache_control"`
}

// BackendConfig contains the hosted backend's base URL and keys.
type BackendConfig struct {
	URL        string `toml:"url"`
	AnonKey    string `toml:"anon_key"`
	ServiceKey string `toml:"service_key"`
	TimeoutSec int    `toml:"timeout_seconds"`
}

// Timeout returns the HTTP client timeout, defaulting to 30 seconds.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.TimeoutSec) * time.Second
}

// CacheConfig configures the redis catalog cache. An empty URL disables caching.
type CacheConfig struct {
	URL        string `toml:"url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime, defaulting to five minutes.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// CatalogConfig contains listing defaults.
type CatalogConfig struct {
	PageSize    int    `toml:"page_size"`
	SearchLimit int    `toml:"search_limit"`
	WatchDir    string `toml:"watch_dir"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

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

// CreateConfigFile writes the embedded example config to path, refusing to overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings other packages rely on.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.Root == "" {
			return fmt.Errorf("%w: storage.root is required for the local driver", ErrInvalidConfig)
		}
	case "hosted":
		if c.Backend.URL == "" || c.Storage.Bucket == "" {
			return fmt.Errorf("%w: backend.url and storage.bucket are required for the hosted driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	return nil
}
