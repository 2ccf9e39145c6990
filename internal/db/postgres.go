package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db        *sql.DB
	namespace string
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn, namespace string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
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
	store := &PostgresStore{db: db, namespace: namespace}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS measurements (
			namespace TEXT NOT NULL DEFAULT 'default',
			key TEXT NOT NULL,
			line TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_updated ON measurements(namespace, updated_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			slog.Debug("migration step failed", "error", err)
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Load returns every line stored under the namespace.
func (s *PostgresStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line FROM measurements WHERE namespace = $1 ORDER BY key`, s.namespace)
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
func (s *PostgresStore) Save(ctx context.Context, lines []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE namespace = $1`, s.namespace); err != nil {
		return err
	}

	query := `INSERT INTO measurements (namespace, key, line, updated_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET line = EXCLUDED.line, updated_at = NOW()`
	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, query, s.namespace, keyOf(line), line); err != nil {
			return fmt.Errorf("failed to insert %q: %w", line, err)
		}
	}
	return tx.Commit()
}
