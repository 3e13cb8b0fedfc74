package session

import (
	"context"
	"time"

	"github.com/vocabtrainer/server/internal/domain/progress"
	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/vocab"
)

// QuestionStore is the Composer's narrow view of repository.QuestionRepository.
type QuestionStore interface {
	GetReviewQuestions(ctx context.Context, now time.Time, limit int) ([]question.Question, error)
	GetNewQuestions(ctx context.Context, limit int) ([]question.Question, error)
	GetActiveWordNewQuestions(ctx context.Context, limit int, exclude []string) ([]question.Question, error)
	MarkAnswered(ctx context.Context, id string, chosenIndex int, wasCorrect bool, responseMs int64, sessionID string) error
	ReadyCount(ctx context.Context) (int, error)
}

// ProgressStore is the Composer's narrow view of repository.ProgressRepository.
type ProgressStore interface {
	Get(ctx context.Context, word, cluster string) (*progress.WordProgress, error)
	Upsert(ctx context.Context, word, cluster string, ef, intervalDays float64, reps int, nextReview time.Time, correct bool, now time.Time) error
	SetArchived(ctx context.Context, word, cluster string, archived bool) error
}

// SessionStore is the Composer's narrow view of repository.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, startedAt time.Time) (int64, error)
	Get(ctx context.Context, id int64) (*Session, error)
	Update(ctx context.Context, sess *Session) error
}

// ClusterStore is consulted only to distinguish "nothing to compose yet"
// from "nothing will ever be composable" when every pool comes back
// empty at Start.
type ClusterStore interface {
	ListEligible(ctx context.Context) ([]vocab.Cluster, error)
}

// BufferChecker is the Composer's narrow view of buffer.Controller,
// triggered after every answer and polled while waiting on generation.
type BufferChecker interface {
	Check(ctx context.Context, shortfall int) error
	InFlight() bool
}

// AudioCacheStore is the Composer's narrow view of
// repository.AudioCacheRepository, consulted when attaching an audio
// reference to a delivered question's context sentence.
type AudioCacheStore interface {
	Get(ctx context.Context, contentHash string) (string, bool, error)
	Put(ctx context.Context, contentHash, artifactPath string) error
}
