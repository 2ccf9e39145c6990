package cache

import (
	"fmt"
	"log/slog"
	"strings"

	"membench/internal/db"
	"membench/internal/kv"
)

// BackendConfig selects and locates a backend.
type BackendConfig struct {
	Type      string // file, memory, sqlite, postgres or badger
	Location  string // file path, database path, DSN or directory; empty selects DefaultLocation
	Namespace string // database backends only
}

// DefaultBadgerDir is the badger directory used when none is configured.
const DefaultBadgerDir = ".membench-badger"

// DefaultLocation returns where a backend of the given type lives when no
// location is configured. Postgres has no default DSN.
func DefaultLocation(typ string) string {
	switch strings.ToLower(typ) {
	case "", "file", "text":
		return DefaultFile
	case "sqlite", "sqlite3":
		return db.DefaultSQLitePath
	case "badger":
		return DefaultBadgerDir
	}
	return ""
}

// ResolvedLocation returns the configured location, or the type's default.
func (cfg BackendConfig) ResolvedLocation() string {
	if cfg.Location != "" {
		return cfg.Location
	}
	return DefaultLocation(cfg.Type)
}

// Open returns the backend described by cfg.
func Open(cfg BackendConfig) (Backend, error) {
	location := cfg.ResolvedLocation()
	switch strings.ToLower(cfg.Type) {
	case "", "file", "text":
		return NewFileBackend(location), nil
	case "memory":
		return &MemoryBackend{}, nil
	case "sqlite", "sqlite3", "postgres", "postgresql":
		return db.NewStore(db.StoreConfig{
			Type:             cfg.Type,
			ConnectionString: location,
			Namespace:        cfg.Namespace,
		})
	case "badger":
		store, err := kv.Open(kv.Config{Path: location, SyncWrites: true, Logger: slog.Default()})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Type)
	}
}
