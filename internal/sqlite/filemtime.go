package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vocabtrainer/server/internal/repository"
)

// FileMtimeRepository persists source-file modification times consulted
// by the (out-of-core) auto-import adapter.
type FileMtimeRepository struct {
	db *DB
}

// NewFileMtimeRepository creates a new FileMtimeRepository.
func NewFileMtimeRepository(db *DB) *FileMtimeRepository {
	return &FileMtimeRepository{db: db}
}

func (r *FileMtimeRepository) Get(ctx context.Context, filename string) (time.Time, bool, error) {
	var mtime time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT mtime FROM file_mtimes WHERE filename = ?`, filename,
	).Scan(&mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: get file mtime: %v", repository.ErrStorageFailure, err)
	}
	return mtime, true, nil
}

func (r *FileMtimeRepository) Set(ctx context.Context, filename string, mtime time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO file_mtimes (filename, mtime) VALUES (?, ?)
		ON CONFLICT(filename) DO UPDATE SET mtime = excluded.mtime
	`, filename, mtime)
	if err != nil {
		return fmt.Errorf("%w: set file mtime: %v", repository.ErrStorageFailure, err)
	}
	return nil
}
