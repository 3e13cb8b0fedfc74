package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/repository"
)

func fourEntryCluster(title string) *vocab.Cluster {
	return &vocab.Cluster{
		Title:      title,
		Preamble:   "four words meaning brief",
		Commentary: "terse is the plainest",
		SourceFile: "brief.md",
		Entries: []vocab.ClusterEntry{
			{Word: "terse", Meaning: "using few words", Distinction: "can imply curtness"},
			{Word: "curt", Meaning: "rudely brief", Distinction: "carries a negative connotation"},
			{Word: "succinct", Meaning: "clearly and briefly expressed", Distinction: "a compliment"},
			{Word: "laconic", Meaning: "using very few words", Distinction: "a habitual trait"},
		},
	}
}

func TestClusterRepository_Upsert_ThenGet_RoundTrips(t *testing.T) {
	db := NewTestDB(t)
	repo := NewClusterRepository(db)
	ctx := context.Background()

	c := fourEntryCluster("Being Brief")
	require.NoError(t, repo.Upsert(ctx, c))
	require.NotZero(t, c.ID, "upsert must populate the assigned cluster id")

	got, err := repo.Get(ctx, "Being Brief")
	require.NoError(t, err)
	require.Equal(t, "four words meaning brief", got.Preamble)
	require.Len(t, got.Entries, 4)
	require.Equal(t, "terse", got.Entries[0].Word)
}

func TestClusterRepository_Upsert_ReplacesEntriesOnConflict(t *testing.T) {
	db := NewTestDB(t)
	repo := NewClusterRepository(db)
	ctx := context.Background()

	c := fourEntryCluster("Being Brief")
	require.NoError(t, repo.Upsert(ctx, c))

	c2 := fourEntryCluster("Being Brief")
	c2.Entries = c2.Entries[:3]
	c2.Entries = append(c2.Entries, vocab.ClusterEntry{Word: "pithy", Meaning: "brief and forceful"})
	require.NoError(t, repo.Upsert(ctx, c2))

	got, err := repo.Get(ctx, "Being Brief")
	require.NoError(t, err)
	require.Len(t, got.Entries, 4)
	require.Equal(t, "pithy", got.Entries[3].Word, "re-upsert must replace, not append to, the entry set")
}

func TestClusterRepository_Get_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewClusterRepository(db)

	_, err := repo.Get(context.Background(), "Nonexistent")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClusterRepository_ListEligible_ExcludesSmallClusters(t *testing.T) {
	db := NewTestDB(t)
	repo := NewClusterRepository(db)
	ctx := context.Background()

	big := fourEntryCluster("Being Brief")
	require.NoError(t, repo.Upsert(ctx, big))

	small := &vocab.Cluster{
		Title: "Tiny Cluster",
		Entries: []vocab.ClusterEntry{
			{Word: "a", Meaning: "m1"},
			{Word: "b", Meaning: "m2"},
		},
	}
	require.NoError(t, repo.Upsert(ctx, small))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	eligible, err := repo.ListEligible(ctx)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, "Being Brief", eligible[0].Title)
}
