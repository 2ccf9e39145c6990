package cache

import (
	"context"
	"fmt"
	"io/fs"
)

// MemoryBackend keeps lines in memory. A nil Lines slice behaves like a
// missing file.
type MemoryBackend struct {
	Lines   []string
	Saves   int
	LoadErr error
	SaveErr error
}

func (m *MemoryBackend) Load(ctx context.Context) ([]string, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Lines == nil {
		return nil, fmt.Errorf("memory backend: %w", fs.ErrNotExist)
	}
	return append([]string(nil), m.Lines...), nil
}

func (m *MemoryBackend) Save(ctx context.Context, lines []string) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Lines = append(make([]string, 0, len(lines)), lines...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
