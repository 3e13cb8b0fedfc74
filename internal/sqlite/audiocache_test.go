package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAudioCacheRepository_Get_Miss(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAudioCacheRepository(db)

	_, ok, err := repo.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAudioCacheRepository_Put_ThenGet_Hits(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAudioCacheRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "deadbeef", "/audio/deadbeef.mp3"))

	path, ok, err := repo.Get(ctx, "deadbeef")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/audio/deadbeef.mp3", path)
}

func TestAudioCacheRepository_Put_OverwritesExistingHash(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAudioCacheRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "deadbeef", "/audio/old.mp3"))
	require.NoError(t, repo.Put(ctx, "deadbeef", "/audio/new.mp3"))

	path, ok, err := repo.Get(ctx, "deadbeef")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/audio/new.mp3", path)
}
