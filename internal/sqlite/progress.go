package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vocabtrainer/server/internal/domain/progress"
	"github.com/vocabtrainer/server/internal/repository"
)

// ProgressRepository persists per-(word,cluster) SRS state.
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Get(ctx context.Context, word, cluster string) (*progress.WordProgress, error) {
	var p progress.WordProgress
	var archived int
	err := r.db.QueryRowContext(ctx, `
		SELECT word, cluster_title, easiness_factor, interval_days, repetitions,
		       next_review, last_review, total_correct, total_incorrect, archived
		FROM word_progress WHERE word = ? AND cluster_title = ?
	`, word, cluster).Scan(&p.Word, &p.ClusterTitle, &p.EasinessFactor, &p.IntervalDays, &p.Repetitions,
		&p.NextReview, &p.LastReview, &p.TotalCorrect, &p.TotalIncorrect, &archived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get word progress: %v", repository.ErrStorageFailure, err)
	}
	p.Archived = archived != 0
	return &p, nil
}

func (r *ProgressRepository) Upsert(ctx context.Context, word, cluster string, ef, intervalDays float64, reps int, nextReview time.Time, correct bool, now time.Time) error {
	var correctDelta, incorrectDelta int
	if correct {
		correctDelta = 1
	} else {
		incorrectDelta = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO word_progress (
			word, cluster_title, easiness_factor, interval_days, repetitions,
			next_review, last_review, total_correct, total_incorrect, archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(word, cluster_title) DO UPDATE SET
			easiness_factor = excluded.easiness_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			next_review = excluded.next_review,
			last_review = excluded.last_review,
			total_correct = total_correct + ?,
			total_incorrect = total_incorrect + ?
	`, word, cluster, ef, intervalDays, reps, nextReview, now, correctDelta, incorrectDelta, correctDelta, incorrectDelta)
	if err != nil {
		return fmt.Errorf("%w: upsert word progress: %v", repository.ErrStorageFailure, err)
	}
	return nil
}

func (r *ProgressRepository) SetArchived(ctx context.Context, word, cluster string, archived bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE word_progress SET archived = ? WHERE word = ? AND cluster_title = ?`,
		boolToInt(archived), word, cluster)
	if err != nil {
		return fmt.Errorf("%w: set word archived: %v", repository.ErrStorageFailure, err)
	}
	return nil
}

func (r *ProgressRepository) ResetDue(ctx context.Context, word, cluster string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE word_progress
		SET interval_days = 1, repetitions = 0, next_review = ?
		WHERE word = ? AND cluster_title = ?
	`, now.Add(24*time.Hour), word, cluster)
	if err != nil {
		return fmt.Errorf("%w: reset word due: %v", repository.ErrStorageFailure, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
