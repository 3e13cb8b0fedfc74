package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vocabtrainer/server/internal/domain/session"
	"github.com/vocabtrainer/server/internal/repository"
)

// SessionRepository persists durable session rows.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, startedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, questions_total, questions_correct) VALUES (?, 0, 0)`,
		startedAt)
	if err != nil {
		return 0, fmt.Errorf("%w: create session: %v", repository.ErrStorageFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: create session: %v", repository.ErrStorageFailure, err)
	}
	return id, nil
}

func (r *SessionRepository) Get(ctx context.Context, id int64) (*session.Session, error) {
	var s session.Session
	var endedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, questions_total, questions_correct
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.StartedAt, &endedAt, &s.QuestionsTotal, &s.QuestionsCorrect)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", repository.ErrStorageFailure, err)
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return &s, nil
}

func (r *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET ended_at = ?, questions_total = ?, questions_correct = ?
		WHERE id = ?
	`, sess.EndedAt, sess.QuestionsTotal, sess.QuestionsCorrect, sess.ID)
	if err != nil {
		return fmt.Errorf("%w: update session: %v", repository.ErrStorageFailure, err)
	}
	return nil
}
