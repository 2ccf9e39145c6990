package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path, namespace string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if namespace == "" {
		namespace = DefaultNamespace
	}
	store := &SQLiteStore{db: db, namespace: namespace}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS measurements (
		namespace TEXT NOT NULL DEFAULT 'default',
		key TEXT NOT NULL,
		line TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, key)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns every line stored under the namespace.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line FROM measurements WHERE namespace = ? ORDER BY key`, s.namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Save replaces the namespace contents in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, lines []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE namespace = ?`, s.namespace); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO measurements (namespace, key, line, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, line := range lines {
		if _, err := stmt.ExecContext(ctx, s.namespace, keyOf(line), line); err != nil {
			return fmt.Errorf("failed to insert %q: %w", line, err)
		}
	}
	return tx.Commit()
}
