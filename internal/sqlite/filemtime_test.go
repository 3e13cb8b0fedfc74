package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileMtimeRepository_Get_Miss(t *testing.T) {
	db := NewTestDB(t)
	repo := NewFileMtimeRepository(db)

	_, ok, err := repo.Get(context.Background(), "brief.md")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileMtimeRepository_Set_ThenGet_Hits(t *testing.T) {
	db := NewTestDB(t)
	repo := NewFileMtimeRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Set(ctx, "brief.md", now))

	got, ok, err := repo.Get(ctx, "brief.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.WithinDuration(t, now, got, time.Second)
}

func TestFileMtimeRepository_Set_UpdatesExistingEntry(t *testing.T) {
	db := NewTestDB(t)
	repo := NewFileMtimeRepository(db)
	ctx := context.Background()
	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	second := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Set(ctx, "brief.md", first))
	require.NoError(t, repo.Set(ctx, "brief.md", second))

	got, ok, err := repo.Get(ctx, "brief.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.WithinDuration(t, second, got, time.Second)
}
