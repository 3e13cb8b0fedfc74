package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vocabtrainer/server/internal/domain/progress"
	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/repository"
	"github.com/vocabtrainer/server/internal/repository/mocks"
	"github.com/vocabtrainer/server/internal/tts"
)

// fakeBuffer is a minimal BufferChecker stand-in: Answer only cares
// that Check doesn't error and that InFlight reflects a test-controlled
// state, not the real idempotence machinery (covered in
// internal/domain/buffer's own tests).
type fakeBuffer struct {
	inFlight bool
	checks   int
}

func (f *fakeBuffer) Check(ctx context.Context, shortfall int) error {
	f.checks++
	return nil
}

func (f *fakeBuffer) InFlight() bool { return f.inFlight }

func readyQuestion(id, word, cluster string) question.Question {
	return question.Question{
		ID:              id,
		QuestionType:    question.TypeFillBlank,
		TargetWord:      word,
		ClusterTitle:    cluster,
		Stem:            "She tried to ___ him.",
		Choices:         [4]string{word, "beguile", "flatter", "wheedle"},
		CorrectIndex:    0,
		Explanation:     "x",
		ContextSentence: "She tried to " + word + " him.",
		ChoiceDetails:   [4]question.ChoiceDetail{{Word: word}, {Word: "beguile"}, {Word: "flatter"}, {Word: "wheedle"}},
		GeneratedAt:     time.Now(),
		SourceBackend:   "mock",
	}
}

// startWithSingleQuestion drives Start so exactly q is composed,
// returning the composer, mocks, and the session id.
func startWithSingleQuestion(t *testing.T, q question.Question, buf *fakeBuffer, archiveThreshold float64) (*Composer, *mocks.QuestionRepository, *mocks.ProgressRepository, *mocks.SessionRepository, int64) {
	t.Helper()

	questions := &mocks.QuestionRepository{}
	questions.On("GetReviewQuestions", mock.Anything, mock.Anything, reviewPoolLimit).Return([]question.Question(nil), nil)
	questions.On("GetNewQuestions", mock.Anything, mock.Anything).Return([]question.Question{q}, nil)
	questions.On("GetActiveWordNewQuestions", mock.Anything, mock.Anything, mock.Anything).Return([]question.Question(nil), nil)
	questions.On("ReadyCount", mock.Anything).Return(0, nil)

	progressRepo := &mocks.ProgressRepository{}
	sessions := &mocks.SessionRepository{}
	sessions.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)

	clusters := &mocks.ClusterRepository{}

	composer := NewComposer(questions, progressRepo, sessions, clusters, buf, nil, nil, 20, archiveThreshold, nil)

	snap, err := composer.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, q.ID, snap.ID)

	return composer, questions, progressRepo, sessions, snap.SessionID
}

func TestAnswer_FirstCorrectDoesNotArchive(t *testing.T) {
	q := readyQuestion("q1", "terse", "Being Brief")
	buf := &fakeBuffer{}
	composer, questions, progressRepo, _, sessionID := startWithSingleQuestion(t, q, buf, 21)

	progressRepo.On("Get", mock.Anything, "terse", "Being Brief").Return((*progress.WordProgress)(nil), repository.ErrNotFound)
	progressRepo.On("Upsert", mock.Anything, "terse", "Being Brief", 2.5, 1.0, 1, mock.Anything, true, mock.Anything).Return(nil)
	questions.On("MarkAnswered", mock.Anything, "q1", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)

	result, err := composer.Answer(context.Background(), sessionID, 0, 0)
	require.NoError(t, err)
	require.True(t, result.Correct)
	require.False(t, result.Archive.Archived)
	progressRepo.AssertCalled(t, "Upsert", mock.Anything, "terse", "Being Brief", 2.5, 1.0, 1, mock.Anything, true, mock.Anything)
}

func TestAnswer_MasteredWordArchivesOnNextCorrect(t *testing.T) {
	q := readyQuestion("q2", "sagacious", "Wise")
	buf := &fakeBuffer{}
	composer, questions, progressRepo, _, sessionID := startWithSingleQuestion(t, q, buf, 21)

	prior := &progress.WordProgress{Word: "sagacious", ClusterTitle: "Wise", EasinessFactor: 2.6, IntervalDays: 25, Repetitions: 5, NextReview: time.Now().Add(-time.Hour)}
	progressRepo.On("Get", mock.Anything, "sagacious", "Wise").Return(prior, nil)
	progressRepo.On("Upsert", mock.Anything, "sagacious", "Wise", mock.Anything, mock.Anything, 6, mock.Anything, true, mock.Anything).Return(nil)
	progressRepo.On("SetArchived", mock.Anything, "sagacious", "Wise", true).Return(nil)
	questions.On("MarkAnswered", mock.Anything, "q2", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)

	result, err := composer.Answer(context.Background(), sessionID, 0, 0)
	require.NoError(t, err)
	require.True(t, result.Archive.Archived)
	require.Contains(t, result.Archive.Reason, "Mastered")
	progressRepo.AssertCalled(t, "SetArchived", mock.Anything, "sagacious", "Wise", true)
}

func TestAnswer_OverdueCorrectYieldsLongerIntervalThanOnTime(t *testing.T) {
	now := time.Now()

	qA := readyQuestion("qA", "overdue", "Pair A")
	bufA := &fakeBuffer{}
	composerA, questionsA, progressA, _, sessionIDA := startWithSingleQuestion(t, qA, bufA, 1000)
	priorA := &progress.WordProgress{Word: "overdue", ClusterTitle: "Pair A", EasinessFactor: 2.5, IntervalDays: 6, Repetitions: 2, NextReview: now.Add(-10 * 24 * time.Hour)}
	progressA.On("Get", mock.Anything, "overdue", "Pair A").Return(priorA, nil)
	progressA.On("Upsert", mock.Anything, "overdue", "Pair A", mock.Anything, mock.Anything, 3, mock.Anything, true, mock.Anything).Return(nil)
	questionsA.On("MarkAnswered", mock.Anything, "qA", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)
	resultA, err := composerA.Answer(context.Background(), sessionIDA, 0, 0)
	require.NoError(t, err)

	qB := readyQuestion("qB", "ontime", "Pair B")
	bufB := &fakeBuffer{}
	composerB, questionsB, progressB, _, sessionIDB := startWithSingleQuestion(t, qB, bufB, 1000)
	priorB := &progress.WordProgress{Word: "ontime", ClusterTitle: "Pair B", EasinessFactor: 2.5, IntervalDays: 6, Repetitions: 2, NextReview: now}
	progressB.On("Get", mock.Anything, "ontime", "Pair B").Return(priorB, nil)
	progressB.On("Upsert", mock.Anything, "ontime", "Pair B", mock.Anything, mock.Anything, 3, mock.Anything, true, mock.Anything).Return(nil)
	questionsB.On("MarkAnswered", mock.Anything, "qB", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)
	resultB, err := composerB.Answer(context.Background(), sessionIDB, 0, 0)
	require.NoError(t, err)

	require.Greater(t, resultA.Archive.IntervalDays, resultB.Archive.IntervalDays)
	require.InDelta(t, 6.0*2.5, resultB.Archive.IntervalDays, 0.001)
}

func TestAnswer_SessionEndsWhenPoolsExhaustedAndBufferIdle(t *testing.T) {
	q := readyQuestion("q3", "terse", "Being Brief")
	buf := &fakeBuffer{inFlight: false}
	composer, questions, progressRepo, sessions, sessionID := startWithSingleQuestion(t, q, buf, 21)

	progressRepo.On("Get", mock.Anything, "terse", "Being Brief").Return((*progress.WordProgress)(nil), repository.ErrNotFound)
	progressRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	questions.On("MarkAnswered", mock.Anything, "q3", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)
	sessions.On("Get", mock.Anything, sessionID).Return(&Session{ID: sessionID, StartedAt: time.Now()}, nil)
	sessions.On("Update", mock.Anything, mock.Anything).Return(nil)

	result, err := composer.Answer(context.Background(), sessionID, 0, 0)
	require.NoError(t, err)
	require.True(t, result.SessionComplete)
	require.NotNil(t, result.Summary)
	require.Equal(t, 1, result.Summary.QuestionsTotal)
	require.Equal(t, 1, result.Summary.QuestionsCorrect)

	_, err = composer.Progress(context.Background(), sessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAnswer_SessionWaitsOnGenerationWhenBufferInFlight(t *testing.T) {
	q := readyQuestion("q4", "terse", "Being Brief")
	buf := &fakeBuffer{inFlight: true}
	composer, questions, progressRepo, _, sessionID := startWithSingleQuestion(t, q, buf, 21)

	progressRepo.On("Get", mock.Anything, "terse", "Being Brief").Return((*progress.WordProgress)(nil), repository.ErrNotFound)
	progressRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	questions.On("MarkAnswered", mock.Anything, "q4", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)

	result, err := composer.Answer(context.Background(), sessionID, 0, 0)
	require.NoError(t, err)
	require.False(t, result.SessionComplete)
	require.True(t, result.SessionProgress.Generating)
	require.Nil(t, result.Summary)
}

func TestStart_NoReadyQuestionsReturnsNoCurrentQuestion(t *testing.T) {
	questions := &mocks.QuestionRepository{}
	questions.On("GetReviewQuestions", mock.Anything, mock.Anything, reviewPoolLimit).Return([]question.Question(nil), nil)
	questions.On("GetNewQuestions", mock.Anything, mock.Anything).Return([]question.Question(nil), nil)
	questions.On("GetActiveWordNewQuestions", mock.Anything, mock.Anything, mock.Anything).Return([]question.Question(nil), nil)

	clusters := &mocks.ClusterRepository{}
	clusters.On("ListEligible", mock.Anything).Return([]vocab.Cluster(nil), nil)

	buf := &fakeBuffer{}
	composer := NewComposer(questions, &mocks.ProgressRepository{}, &mocks.SessionRepository{}, clusters, buf, nil, nil, 20, 21, nil)

	_, err := composer.Start(context.Background())
	require.ErrorIs(t, err, ErrNoCurrentQuestion)
	require.Equal(t, 1, buf.checks)
}

func TestStart_MarksReviewAndReinforcementQuestionsNotNew(t *testing.T) {
	reviewQ := readyQuestion("review1", "stale", "Old Guard")
	reinforceQ := readyQuestion("reinforce1", "active", "Keeping Up")

	questions := &mocks.QuestionRepository{}
	questions.On("GetReviewQuestions", mock.Anything, mock.Anything, reviewPoolLimit).Return([]question.Question{reviewQ}, nil)
	questions.On("GetNewQuestions", mock.Anything, mock.Anything).Return([]question.Question(nil), nil)
	questions.On("GetActiveWordNewQuestions", mock.Anything, mock.Anything, mock.Anything).Return([]question.Question{reinforceQ}, nil)
	questions.On("ReadyCount", mock.Anything).Return(0, nil)

	sessions := &mocks.SessionRepository{}
	sessions.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)

	composer := NewComposer(questions, &mocks.ProgressRepository{}, sessions, &mocks.ClusterRepository{}, &fakeBuffer{}, nil, nil, 20, 21, nil)

	snap, err := composer.Start(context.Background())
	require.NoError(t, err)
	require.False(t, snap.IsNew, "review and reinforcement questions must report is_new=false")
}

func TestStart_MarksNewPoolQuestionAsNew(t *testing.T) {
	newQ := readyQuestion("new1", "fresh", "Brand New")

	questions := &mocks.QuestionRepository{}
	questions.On("GetReviewQuestions", mock.Anything, mock.Anything, reviewPoolLimit).Return([]question.Question(nil), nil)
	questions.On("GetNewQuestions", mock.Anything, mock.Anything).Return([]question.Question{newQ}, nil)
	questions.On("GetActiveWordNewQuestions", mock.Anything, mock.Anything, mock.Anything).Return([]question.Question(nil), nil)
	questions.On("ReadyCount", mock.Anything).Return(0, nil)

	sessions := &mocks.SessionRepository{}
	sessions.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)

	composer := NewComposer(questions, &mocks.ProgressRepository{}, sessions, &mocks.ClusterRepository{}, &fakeBuffer{}, nil, nil, 20, 21, nil)

	snap, err := composer.Start(context.Background())
	require.NoError(t, err)
	require.True(t, snap.IsNew, "a question sourced from the new-word pool must report is_new=true")
}

// fakeSpeaker is a tts.Provider stand-in that counts calls instead of
// synthesizing anything.
type fakeSpeaker struct {
	calls int
}

func (f *fakeSpeaker) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	f.calls++
	return tts.Audio{ContentHash: tts.ContentHash(text)}, nil
}

// fakeAudioCache is an AudioCacheStore stand-in backed by a plain map.
type fakeAudioCache struct {
	entries map[string]string
}

func newFakeAudioCache() *fakeAudioCache { return &fakeAudioCache{entries: map[string]string{}} }

func (f *fakeAudioCache) Get(ctx context.Context, contentHash string) (string, bool, error) {
	path, ok := f.entries[contentHash]
	return path, ok, nil
}

func (f *fakeAudioCache) Put(ctx context.Context, contentHash, artifactPath string) error {
	f.entries[contentHash] = artifactPath
	return nil
}

func TestStart_AttachesAudioHashWhenTTSWired(t *testing.T) {
	q := readyQuestion("q5", "resonant", "Echoing")
	buf := &fakeBuffer{}

	questions := &mocks.QuestionRepository{}
	questions.On("GetReviewQuestions", mock.Anything, mock.Anything, reviewPoolLimit).Return([]question.Question(nil), nil)
	questions.On("GetNewQuestions", mock.Anything, mock.Anything).Return([]question.Question{q}, nil)
	questions.On("GetActiveWordNewQuestions", mock.Anything, mock.Anything, mock.Anything).Return([]question.Question(nil), nil)
	questions.On("ReadyCount", mock.Anything).Return(0, nil)

	sessions := &mocks.SessionRepository{}
	sessions.On("Create", mock.Anything, mock.Anything).Return(int64(1), nil)

	speaker := &fakeSpeaker{}
	cache := newFakeAudioCache()
	composer := NewComposer(questions, &mocks.ProgressRepository{}, sessions, &mocks.ClusterRepository{}, buf, speaker, cache, 20, 21, nil)

	snap, err := composer.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, tts.ContentHash(q.ContextSentence), snap.AudioHash)
	require.Equal(t, 1, speaker.calls)

	// Resuming the same question must reuse the cache entry rather than
	// re-synthesizing.
	_, err = composer.Resume(context.Background(), snap.SessionID)
	require.NoError(t, err)
	require.Equal(t, 1, speaker.calls)
}

func TestProgressStream_ClosesOnContextCancel(t *testing.T) {
	q := readyQuestion("q6", "terse", "Being Brief")
	composer, _, _, _, sessionID := startWithSingleQuestion(t, q, &fakeBuffer{}, 21)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := composer.ProgressStream(ctx, sessionID)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-stream:
		require.False(t, open, "stream must close, not emit, on immediate cancellation")
	case <-time.After(time.Second):
		t.Fatal("ProgressStream did not close promptly after context cancellation")
	}
}

func TestProgressStream_UnknownSessionErrors(t *testing.T) {
	composer := NewComposer(&mocks.QuestionRepository{}, &mocks.ProgressRepository{}, &mocks.SessionRepository{}, &mocks.ClusterRepository{}, &fakeBuffer{}, nil, nil, 20, 21, nil)
	_, err := composer.ProgressStream(context.Background(), 999)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
