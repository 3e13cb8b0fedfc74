package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vocabtrainer/server/internal/repository"
)

// AudioCacheRepository persists the content-hash -> artifact mapping
// the session composer consults when attaching audio to a question.
type AudioCacheRepository struct {
	db *DB
}

// NewAudioCacheRepository creates a new AudioCacheRepository.
func NewAudioCacheRepository(db *DB) *AudioCacheRepository {
	return &AudioCacheRepository{db: db}
}

func (r *AudioCacheRepository) Get(ctx context.Context, contentHash string) (string, bool, error) {
	var path string
	err := r.db.QueryRowContext(ctx,
		`SELECT artifact_path FROM audio_cache WHERE content_hash = ?`, contentHash,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get audio cache entry: %v", repository.ErrStorageFailure, err)
	}
	return path, true, nil
}

func (r *AudioCacheRepository) Put(ctx context.Context, contentHash, artifactPath string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audio_cache (content_hash, artifact_path) VALUES (?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET artifact_path = excluded.artifact_path
	`, contentHash, artifactPath)
	if err != nil {
		return fmt.Errorf("%w: put audio cache entry: %v", repository.ErrStorageFailure, err)
	}
	return nil
}
