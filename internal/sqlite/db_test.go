package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"words",
		"clusters",
		"cluster_entries",
		"word_progress",
		"sessions",
		"questions",
		"audio_cache",
		"file_mtimes",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestClusterEntriesForeignKey(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO words (word) VALUES ('terse')`)
	require.NoError(t, err)

	res, err := db.ExecContext(ctx, `INSERT INTO clusters (title) VALUES ('Being Brief')`)
	require.NoError(t, err)
	clusterID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO cluster_entries (cluster_id, word, position) VALUES (?, ?, ?)`,
		clusterID, "terse", 0)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO cluster_entries (cluster_id, word, position) VALUES (?, ?, ?)`,
		999, "terse", 0)
	require.Error(t, err, "should fail with invalid cluster_id")
}

func TestQuestionTypeConstraint(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO questions (id, question_type, target_word, cluster_title, stem, choices, correct_index, choice_details, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		"q1", "not_a_real_type", "terse", "Being Brief", "stem", "[]", 0, "[]")
	require.Error(t, err, "should reject an unrecognized question_type")
}
