package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vocabtrainer/server/internal/repository"
)

func TestSessionRepository_Create_ThenGet_StartsAtZeroCounts(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	id, err := repo.Create(ctx, now)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, got.QuestionsTotal)
	require.Equal(t, 0, got.QuestionsCorrect)
	require.Nil(t, got.EndedAt)
}

func TestSessionRepository_Get_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)

	_, err := repo.Get(context.Background(), 999)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_Update_PersistsEndedAtAndCounts(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	id, err := repo.Create(ctx, now)
	require.NoError(t, err)

	sess, err := repo.Get(ctx, id)
	require.NoError(t, err)

	endedAt := now.Add(10 * time.Minute)
	sess.EndedAt = &endedAt
	sess.QuestionsTotal = 12
	sess.QuestionsCorrect = 9
	require.NoError(t, repo.Update(ctx, sess))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	require.WithinDuration(t, endedAt, *got.EndedAt, time.Second)
	require.Equal(t, 12, got.QuestionsTotal)
	require.Equal(t, 9, got.QuestionsCorrect)
}
