package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SINGSYNC_"

// LoadEnvFile loads KEY=value pairs from the given .env files into the process environment.
//
// Variables already set win over the file. Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays SINGSYNC_* environment variables on c.
//
// Secrets (backend keys, database auth token) usually live here rather than in config.toml.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"DATABASE_PATH":       &c.Database.Path,
		"DATABASE_AUTH_TOKEN": &c.Database.AuthToken,
		"SERVER_HOST":         &c.Server.Host,
		"STORAGE_DRIVER":      &c.Storage.Driver,
		"STORAGE_ROOT":        &c.Storage.Root,
		"STORAGE_PUBLIC_URL":  &c.Storage.PublicURL,
		"STORAGE_BUCKET":      &c.Storage.Bucket,
		"BACKEND_URL":         &c.Backend.URL,
		"BACKEND_ANON_KEY":    &c.Backend.AnonKey,
		"BACKEND_SERVICE_KEY": &c.Backend.ServiceKey,
		"CACHE_URL":           &c.Cache.URL,
		"LOG_LEVEL":           &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":       &c.Server.Port,
		"CATALOG_PAGE_SIZE": &c.Catalog.PageSize,
		"CACHE_TTL_SECONDS": &c.Cache.TTLSeconds,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, EnvPrefix, key, v)
		}
		*dst = n
	}

	return nil
}
