package db

import (
	"context"
	"strings"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "default"

// Store persists measurement lines. Lines are grouped by namespace so that
// several hosts can share one database without mixing their timings.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, lines []string) error
	Close() error
}

// keyOf returns the lookup key of a measurement line: its first five
// colon-separated fields.
func keyOf(line string) string {
	parts := strings.SplitN(line, ":", 6)
	if len(parts) > 5 {
		parts = parts[:5]
	}
	return strings.Join(parts, ":")
}
