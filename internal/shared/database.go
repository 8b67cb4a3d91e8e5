package shared

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DriverFor picks the database/sql driver for a configured database path.
//
// libsql:// and http(s):// URLs go to the hosted libsql client; anything else is a SQLite file.
func DriverFor(path string) string {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(path, scheme) {
			return "libsql"
		}
	}
	return "sqlite3"
}

// NewDatabase opens a connection to the catalog database at the specified path.
//
// The path can be ":memory:" for an in-memory database, in which case the pool is pinned to a
// single connection so every query sees the same database. authToken is appended to libsql URLs.
func NewDatabase(path string, authToken ...string) (*sql.DB, error) {
	driver := DriverFor(path)
	dsn := path
	if driver == "libsql" && len(authToken) > 0 && authToken[0] != "" {
		dsn = withAuthToken(path, authToken[0])
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Non-positive values leave the driver defaults in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// OpenConfigured opens, configures and migrates the database described by cfg.
func OpenConfigured(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Path, cfg.AuthToken)
	if err != nil {
		return nil, err
	}
	if cfg.Path != ":memory:" {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func withAuthToken(raw, token string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}
