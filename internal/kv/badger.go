// Package kv stores measurement lines in an embedded Badger database.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "measurement/"

// Config configures the Badger store.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
}

// Store persists measurement lines keyed by their first five fields.
type Store struct {
	db *badger.DB
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (creating if needed) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func lineKey(line string) []byte {
	parts := strings.SplitN(line, ":", 6)
	if len(parts) > 5 {
		parts = parts[:5]
	}
	return []byte(keyPrefix + strings.Join(parts, ":"))
}

// Load returns every stored line in key order.
func (s *Store) Load(ctx context.Context) ([]string, error) {
	var lines []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			lines = append(lines, string(val))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read measurements: %w", err)
	}
	return lines, nil
}

// Save replaces the stored lines. New lines are flushed before stale keys
// are deleted, so a failed save never leaves fewer records than it found.
func (s *Store) Save(ctx context.Context, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := s.keys(ctx)
	if err != nil {
		return fmt.Errorf("list measurements: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := lineKey(line)
		if err := wb.Set(key, []byte(line)); err != nil {
			return fmt.Errorf("write %q: %w", line, err)
		}
		delete(existing, string(key))
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush measurements: %w", err)
	}

	if len(existing) == 0 {
		return nil
	}
	stale := s.db.NewWriteBatch()
	defer stale.Cancel()
	for key := range existing {
		if err := stale.Delete([]byte(key)); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}
	if err := stale.Flush(); err != nil {
		return fmt.Errorf("flush stale measurements: %w", err)
	}
	return nil
}

func (s *Store) keys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys[string(it.Item().KeyCopy(nil))] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
