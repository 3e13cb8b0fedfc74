package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vocabtrainer/server/internal/domain/progress"
	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/session"
	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/repository"
)

// WordRepository is a mock for repository.WordRepository.
type WordRepository struct {
	mock.Mock
}

func (m *WordRepository) Upsert(ctx context.Context, word vocab.Word) error {
	args := m.Called(ctx, word)
	return args.Error(0)
}

func (m *WordRepository) Get(ctx context.Context, word string) (vocab.Word, error) {
	args := m.Called(ctx, word)
	w, _ := args.Get(0).(vocab.Word)
	return w, args.Error(1)
}

func (m *WordRepository) List(ctx context.Context) ([]vocab.Word, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]vocab.Word); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ClusterRepository is a mock for repository.ClusterRepository.
type ClusterRepository struct {
	mock.Mock
}

func (m *ClusterRepository) Upsert(ctx context.Context, cluster *vocab.Cluster) error {
	args := m.Called(ctx, cluster)
	return args.Error(0)
}

func (m *ClusterRepository) Get(ctx context.Context, title string) (*vocab.Cluster, error) {
	args := m.Called(ctx, title)
	if c, ok := args.Get(0).(*vocab.Cluster); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClusterRepository) List(ctx context.Context) ([]vocab.Cluster, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]vocab.Cluster); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClusterRepository) ListEligible(ctx context.Context) ([]vocab.Cluster, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]vocab.Cluster); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// QuestionRepository is a mock for repository.QuestionRepository.
type QuestionRepository struct {
	mock.Mock
}

func (m *QuestionRepository) Save(ctx context.Context, q *question.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *QuestionRepository) GetReviewQuestions(ctx context.Context, now time.Time, limit int) ([]question.Question, error) {
	args := m.Called(ctx, now, limit)
	if list, ok := args.Get(0).([]question.Question); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) GetNewQuestions(ctx context.Context, limit int) ([]question.Question, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]question.Question); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) GetActiveWordNewQuestions(ctx context.Context, limit int, exclude []string) ([]question.Question, error) {
	args := m.Called(ctx, limit, exclude)
	if list, ok := args.Get(0).([]question.Question); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) MarkAnswered(ctx context.Context, id string, chosenIndex int, wasCorrect bool, responseMs int64, sessionID string) error {
	args := m.Called(ctx, id, chosenIndex, wasCorrect, responseMs, sessionID)
	return args.Error(0)
}

func (m *QuestionRepository) ReadyCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *QuestionRepository) GetWordClusterQuestionCounts(ctx context.Context) (map[repository.WordClusterKey]int, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).(map[repository.WordClusterKey]int); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) GetWordClustersNeedingQuestions(ctx context.Context) ([]repository.WordClusterKey, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]repository.WordClusterKey); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) GetNewWordClustersWithoutQuestions(ctx context.Context, limit int) ([]repository.WordClusterKey, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]repository.WordClusterKey); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProgressRepository is a mock for repository.ProgressRepository.
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) Get(ctx context.Context, word, cluster string) (*progress.WordProgress, error) {
	args := m.Called(ctx, word, cluster)
	if p, ok := args.Get(0).(*progress.WordProgress); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProgressRepository) Upsert(ctx context.Context, word, cluster string, ef, intervalDays float64, reps int, nextReview time.Time, correct bool, now time.Time) error {
	args := m.Called(ctx, word, cluster, ef, intervalDays, reps, nextReview, correct, now)
	return args.Error(0)
}

func (m *ProgressRepository) SetArchived(ctx context.Context, word, cluster string, archived bool) error {
	args := m.Called(ctx, word, cluster, archived)
	return args.Error(0)
}

func (m *ProgressRepository) ResetDue(ctx context.Context, word, cluster string, now time.Time) error {
	args := m.Called(ctx, word, cluster, now)
	return args.Error(0)
}

// SessionRepository is a mock for repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, startedAt time.Time) (int64, error) {
	args := m.Called(ctx, startedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SessionRepository) Get(ctx context.Context, id int64) (*session.Session, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*session.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

// AudioCacheRepository is a mock for repository.AudioCacheRepository.
type AudioCacheRepository struct {
	mock.Mock
}

func (m *AudioCacheRepository) Get(ctx context.Context, contentHash string) (string, bool, error) {
	args := m.Called(ctx, contentHash)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *AudioCacheRepository) Put(ctx context.Context, contentHash, artifactPath string) error {
	args := m.Called(ctx, contentHash, artifactPath)
	return args.Error(0)
}

// FileMtimeRepository is a mock for repository.FileMtimeRepository.
type FileMtimeRepository struct {
	mock.Mock
}

func (m *FileMtimeRepository) Get(ctx context.Context, filename string) (time.Time, bool, error) {
	args := m.Called(ctx, filename)
	t, _ := args.Get(0).(time.Time)
	return t, args.Bool(1), args.Error(2)
}

func (m *FileMtimeRepository) Set(ctx context.Context, filename string, mtime time.Time) error {
	args := m.Called(ctx, filename, mtime)
	return args.Error(0)
}
