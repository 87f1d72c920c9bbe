package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escalopa/arud-bot/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, path, store.Path())

	ctx := context.Background()
	_, err = store.Get(ctx, "lastAnalysis")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Put(ctx, "lastAnalysis", []byte("first")))
	require.NoError(t, store.Put(ctx, "lastAnalysis", []byte("second")))

	got, err := store.Get(ctx, "lastAnalysis")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	require.NoError(t, store.Delete(ctx, "lastAnalysis"))
	_, err = store.Get(ctx, "lastAnalysis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
