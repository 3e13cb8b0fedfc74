package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/repository"
)

// ClusterRepository persists vocab.Cluster rows and their entries.
type ClusterRepository struct {
	db *DB
}

// NewClusterRepository creates a new ClusterRepository.
func NewClusterRepository(db *DB) *ClusterRepository {
	return &ClusterRepository{db: db}
}

func (r *ClusterRepository) Upsert(ctx context.Context, cluster *vocab.Cluster) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert cluster: %v", repository.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO clusters (title, preamble, commentary, source_file)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			preamble = excluded.preamble,
			commentary = excluded.commentary,
			source_file = excluded.source_file
	`, cluster.Title, cluster.Preamble, cluster.Commentary, cluster.SourceFile)
	if err != nil {
		return fmt.Errorf("%w: upsert cluster: %v", repository.ErrStorageFailure, err)
	}

	var clusterID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM clusters WHERE title = ?`, cluster.Title).Scan(&clusterID); err != nil {
		return fmt.Errorf("%w: resolve cluster id: %v", repository.ErrStorageFailure, err)
	}
	_ = res

	if _, err := tx.ExecContext(ctx, `DELETE FROM cluster_entries WHERE cluster_id = ?`, clusterID); err != nil {
		return fmt.Errorf("%w: clear cluster entries: %v", repository.ErrStorageFailure, err)
	}

	for i, entry := range cluster.Entries {
		word := vocab.Normalize(entry.Word)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO words (word) VALUES (?) ON CONFLICT(word) DO NOTHING`, word,
		); err != nil {
			return fmt.Errorf("%w: ensure word: %v", repository.ErrStorageFailure, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cluster_entries (cluster_id, word, meaning, distinction, position)
			VALUES (?, ?, ?, ?, ?)
		`, clusterID, word, entry.Meaning, entry.Distinction, i); err != nil {
			return fmt.Errorf("%w: insert cluster entry: %v", repository.ErrStorageFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert cluster: %v", repository.ErrStorageFailure, err)
	}
	cluster.ID = clusterID
	return nil
}

func (r *ClusterRepository) Get(ctx context.Context, title string) (*vocab.Cluster, error) {
	var c vocab.Cluster
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, preamble, commentary, source_file FROM clusters WHERE title = ?`, title,
	).Scan(&c.ID, &c.Title, &c.Preamble, &c.Commentary, &c.SourceFile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get cluster: %v", repository.ErrStorageFailure, err)
	}

	entries, err := r.entriesFor(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Entries = entries
	return &c, nil
}

func (r *ClusterRepository) List(ctx context.Context) ([]vocab.Cluster, error) {
	return r.list(ctx, "")
}

func (r *ClusterRepository) ListEligible(ctx context.Context) ([]vocab.Cluster, error) {
	return r.list(ctx, "HAVING COUNT(ce.word) >= 4")
}

func (r *ClusterRepository) list(ctx context.Context, having string) ([]vocab.Cluster, error) {
	query := `
		SELECT c.id, c.title, c.preamble, c.commentary, c.source_file
		FROM clusters c
		LEFT JOIN cluster_entries ce ON ce.cluster_id = c.id
		GROUP BY c.id
	` + having + `
		ORDER BY c.title
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list clusters: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()

	var clusters []vocab.Cluster
	for rows.Next() {
		var c vocab.Cluster
		if err := rows.Scan(&c.ID, &c.Title, &c.Preamble, &c.Commentary, &c.SourceFile); err != nil {
			return nil, fmt.Errorf("%w: scan cluster: %v", repository.ErrStorageFailure, err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list clusters: %v", repository.ErrStorageFailure, err)
	}

	for i := range clusters {
		entries, err := r.entriesFor(ctx, clusters[i].ID)
		if err != nil {
			return nil, err
		}
		clusters[i].Entries = entries
	}
	return clusters, nil
}

func (r *ClusterRepository) entriesFor(ctx context.Context, clusterID int64) ([]vocab.ClusterEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT word, meaning, distinction FROM cluster_entries WHERE cluster_id = ? ORDER BY position`,
		clusterID)
	if err != nil {
		return nil, fmt.Errorf("%w: list cluster entries: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()

	var entries []vocab.ClusterEntry
	for rows.Next() {
		var e vocab.ClusterEntry
		if err := rows.Scan(&e.Word, &e.Meaning, &e.Distinction); err != nil {
			return nil, fmt.Errorf("%w: scan cluster entry: %v", repository.ErrStorageFailure, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list cluster entries: %v", repository.ErrStorageFailure, err)
	}
	return entries, nil
}
