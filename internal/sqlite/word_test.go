package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/repository"
)

func TestWordRepository_Upsert_NormalizesAndOverwrites(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWordRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, vocab.Word{Word: "Terse", Definition: "first", Section: "A"}))
	require.NoError(t, repo.Upsert(ctx, vocab.Word{Word: "TERSE", Definition: "second", Section: "B"}))

	got, err := repo.Get(ctx, "terse")
	require.NoError(t, err)
	require.Equal(t, "second", got.Definition)
	require.Equal(t, "B", got.Section)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert of the same normalized word must not create a duplicate row")
}

func TestWordRepository_Get_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWordRepository(db)

	_, err := repo.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWordRepository_List_OrdersAlphabetically(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWordRepository(db)
	ctx := context.Background()

	for _, w := range []string{"succinct", "curt", "laconic"} {
		require.NoError(t, repo.Upsert(ctx, vocab.Word{Word: w}))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "curt", all[0].Word)
	require.Equal(t, "laconic", all[1].Word)
	require.Equal(t, "succinct", all[2].Word)
}
