package repository

import (
	"context"
	"time"

	"github.com/vocabtrainer/server/internal/domain/progress"
	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/session"
	"github.com/vocabtrainer/server/internal/domain/vocab"
)

// WordClusterKey identifies a (word, cluster) pair — the SRS unit of
// scheduling.
type WordClusterKey struct {
	Word         string
	ClusterTitle string
}

// WordRepository manages Word persistence. Words are populated by the
// (out-of-core) parser collaborator and are immutable during the core's
// operation except via full re-import.
type WordRepository interface {
	Upsert(ctx context.Context, word vocab.Word) error
	Get(ctx context.Context, word string) (vocab.Word, error)
	List(ctx context.Context) ([]vocab.Word, error)
}

// ClusterRepository manages Cluster persistence, including entries.
type ClusterRepository interface {
	Upsert(ctx context.Context, cluster *vocab.Cluster) error
	Get(ctx context.Context, title string) (*vocab.Cluster, error)
	List(ctx context.Context) ([]vocab.Cluster, error)
	// ListEligible returns clusters with at least 4 entries.
	ListEligible(ctx context.Context) ([]vocab.Cluster, error)
}

// QuestionRepository is the Store's question query surface.
// Every mutation commits before returning; reads are snapshot-consistent
// within a single call.
type QuestionRepository interface {
	Save(ctx context.Context, q *question.Question) error

	// GetReviewQuestions returns ready questions for due active pairs,
	// descending next_review (freshly-due first).
	GetReviewQuestions(ctx context.Context, now time.Time, limit int) ([]question.Question, error)

	// GetNewQuestions returns ready questions for pairs with no progress
	// row.
	GetNewQuestions(ctx context.Context, limit int) ([]question.Question, error)

	// GetActiveWordNewQuestions returns ready reinforcement questions for
	// already-active words, excluding the supplied word set
	// (case-insensitive).
	GetActiveWordNewQuestions(ctx context.Context, limit int, exclude []string) ([]question.Question, error)

	// MarkAnswered idempotently sets a question's answer-state fields.
	// Returns ErrNotFound if id is unknown.
	MarkAnswered(ctx context.Context, id string, chosenIndex int, wasCorrect bool, responseMs int64, sessionID string) error

	// ReadyCount returns the total number of ready (unanswered,
	// non-archived-pair) questions.
	ReadyCount(ctx context.Context) (int, error)

	// GetWordClusterQuestionCounts returns ready-question counts for
	// every (word, cluster) pair drawn from clusters of size >=4,
	// excluding archived pairs. Drives generation targeting.
	GetWordClusterQuestionCounts(ctx context.Context) (map[WordClusterKey]int, error)

	// GetWordClustersNeedingQuestions returns active, non-archived pairs
	// with zero ready questions, ordered by next_review ascending.
	GetWordClustersNeedingQuestions(ctx context.Context) ([]WordClusterKey, error)

	// GetNewWordClustersWithoutQuestions returns up to limit pairs with
	// no progress row and no ready question, from eligible clusters, in
	// randomized order.
	GetNewWordClustersWithoutQuestions(ctx context.Context, limit int) ([]WordClusterKey, error)
}

// ProgressRepository manages per-(word,cluster) SRS state.
type ProgressRepository interface {
	Get(ctx context.Context, word, cluster string) (*progress.WordProgress, error)

	// Upsert inserts a row on first call; on update it overwrites the SRS
	// fields and increments total_correct or total_incorrect per the
	// correct flag, setting last_review to now.
	Upsert(ctx context.Context, word, cluster string, ef, intervalDays float64, reps int, nextReview time.Time, correct bool, now time.Time) error

	SetArchived(ctx context.Context, word, cluster string, archived bool) error

	// ResetDue sets interval_days=1, repetitions=0, next_review=now+1day.
	ResetDue(ctx context.Context, word, cluster string, now time.Time) error
}

// SessionRepository manages durable session rows.
type SessionRepository interface {
	Create(ctx context.Context, startedAt time.Time) (int64, error)
	Get(ctx context.Context, id int64) (*session.Session, error)
	Update(ctx context.Context, sess *session.Session) error
}

// AudioCacheRepository is a simple key-value table keyed by content hash.
// The session composer consults it when attaching an audio hash to a
// delivered question, and fills it after a synthesis miss.
type AudioCacheRepository interface {
	Get(ctx context.Context, contentHash string) (string, bool, error)
	Put(ctx context.Context, contentHash, artifactPath string) error
}

// FileMtimeRepository is a simple key-value table of source-file
// modification times — consulted only by the (out-of-core)
// auto-import collaborator.
type FileMtimeRepository interface {
	Get(ctx context.Context, filename string) (time.Time, bool, error)
	Set(ctx context.Context, filename string, mtime time.Time) error
}
