package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(Config{Path: dir})
	require.NoError(t, err)

	lines, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	saved := []string{
		"bionic:strchr:16:12500000:2:0.75",
		"bionic:strchr:32:8838834:2:0.8",
	}
	require.NoError(t, store.Save(ctx, saved))
	require.NoError(t, store.Close())

	reopened, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	lines, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, saved, lines)
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, []string{"a:f:1:1:1:1.0", "a:f:2:1:1:1.0"}))
	require.NoError(t, store.Save(ctx, []string{"a:f:2:1:1:2.0"}))

	lines, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:f:2:1:1:2.0"}, lines)
}

func TestStore_CancelledSaveKeepsRecords(t *testing.T) {
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	saved := []string{"a:f:1:1:1:1.0", "a:f:2:1:1:1.0"}
	require.NoError(t, store.Save(context.Background(), saved))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.Save(ctx, []string{"a:f:4:1:1:1.0"})
	assert.ErrorIs(t, err, context.Canceled)

	lines, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, lines)
}

func TestStore_SaveKeepsUnchangedKeys(t *testing.T) {
	ctx := context.Background()
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, []string{"a:f:1:1:1:1.0", "a:f:2:1:1:1.0", "a:f:3:1:1:1.0"}))
	require.NoError(t, store.Save(ctx, []string{"a:f:1:1:1:1.0", "a:f:3:1:1:3.0", "a:f:4:1:1:4.0"}))

	lines, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:f:1:1:1:1.0", "a:f:3:1:1:3.0", "a:f:4:1:1:4.0"}, lines)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
