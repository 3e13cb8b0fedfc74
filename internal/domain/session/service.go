package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/srs"
	"github.com/vocabtrainer/server/internal/repository"
	"github.com/vocabtrainer/server/internal/transport"
	"github.com/vocabtrainer/server/internal/tts"
)

// reviewPoolLimit bounds how many due questions Start pulls from the
// review pool in one pass.
const reviewPoolLimit = 200

// liveSession is the in-memory state for one active training session —
// the "Active Sessions map" entry. A per-session mutex
// serializes concurrent requests against the same session; there is no
// cross-session invariant, so no global lock is needed.
type liveSession struct {
	mu sync.Mutex

	questions []question.Question
	isNew     []bool         // parallel to questions: true if sourced from the new-word pool
	shuffles  map[int][4]int // question index -> display order, built lazily

	current   int
	seenIDs   map[string]bool
	seenWords map[string]bool

	total   int
	correct int
	target  int
	ended   bool
}

// Composer assembles training sessions from the review, new, and
// reinforcement pools, serves questions in shuffled order, grades
// answers through the SRS engine, and keeps the durable Session row in
// sync with in-memory progress.
type Composer struct {
	Questions QuestionStore
	Progress  ProgressStore
	Sessions  SessionStore
	Clusters  ClusterStore
	Buffer    BufferChecker
	Logger    *slog.Logger

	// TTS narrates a delivered question's context sentence. It is invoked
	// on every snapshot build even though synthesis itself is out of
	// core; a nil TTS (or a noop.Provider) simply means no audio
	// reference is attached.
	TTS tts.Provider
	// AudioCache backs TTS with a content-hash keyed cache, so repeated
	// context sentences don't re-synthesize.
	AudioCache AudioCacheStore

	// SessionSize is the soft per-session question target.
	SessionSize int
	// ArchiveThresholdDays is the interval at or above which a correct
	// answer archives its (word, cluster) pair as mastered.
	ArchiveThresholdDays float64

	live sync.Map // int64 -> *liveSession
}

// NewComposer constructs a Composer over its Store collaborators and
// the Buffer Controller it checks after every answer. speaker and
// audioCache may be nil to disable audio-hash attachment entirely.
func NewComposer(questions QuestionStore, prog ProgressStore, sessions SessionStore, clusters ClusterStore, buf BufferChecker, speaker tts.Provider, audioCache AudioCacheStore, sessionSize int, archiveThresholdDays float64, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		Questions:            questions,
		Progress:             prog,
		Sessions:             sessions,
		Clusters:             clusters,
		Buffer:               buf,
		TTS:                  speaker,
		AudioCache:           audioCache,
		Logger:               logger,
		SessionSize:          sessionSize,
		ArchiveThresholdDays: archiveThresholdDays,
	}
}

// Start composes an ordered question list from the review, new, and
// reinforcement pools, persists a Session row, and returns the first
// delivered question.
func (c *Composer) Start(ctx context.Context) (*transport.QuestionSnapshot, error) {
	now := time.Now()

	reviewQs, err := c.Questions.GetReviewQuestions(ctx, now, reviewPoolLimit)
	if err != nil {
		return nil, err
	}

	newLimit := c.SessionSize - len(reviewQs)
	if newLimit < 0 {
		newLimit = 0
	}
	newQs, err := c.Questions.GetNewQuestions(ctx, newLimit)
	if err != nil {
		return nil, err
	}

	seenWords := make(map[string]bool, len(reviewQs)+len(newQs))
	for _, q := range reviewQs {
		seenWords[strings.ToLower(q.TargetWord)] = true
	}
	for _, q := range newQs {
		seenWords[strings.ToLower(q.TargetWord)] = true
	}

	remaining := c.SessionSize - len(reviewQs) - len(newQs)
	if remaining < 0 {
		remaining = 0
	}
	exclude := make([]string, 0, len(seenWords))
	for w := range seenWords {
		exclude = append(exclude, w)
	}
	reinforcement, err := c.Questions.GetActiveWordNewQuestions(ctx, remaining, exclude)
	if err != nil {
		return nil, err
	}

	combined := make([]question.Question, 0, len(reviewQs)+len(newQs)+len(reinforcement))
	combined = append(combined, reviewQs...)
	combined = append(combined, newQs...)
	combined = append(combined, reinforcement...)

	isNew := make([]bool, 0, len(combined))
	for range reviewQs {
		isNew = append(isNew, false)
	}
	for range newQs {
		isNew = append(isNew, true)
	}
	for range reinforcement {
		isNew = append(isNew, false)
	}

	if len(combined) == 0 {
		// Nothing ready right now. Kick the buffer so a retry has a
		// chance of succeeding; log whether any cluster could ever
		// produce a question, since that distinguishes "still warming
		// up" from "nothing to teach at all" for an operator reading
		// the logs, even though both cases return the same error to
		// the caller (there is no question to hand back either way).
		c.Buffer.Check(ctx, c.SessionSize)
		if clusters, clusterErr := c.Clusters.ListEligible(ctx); clusterErr == nil && len(clusters) == 0 {
			c.Logger.Warn("session start found no eligible clusters at all")
		}
		return nil, ErrNoCurrentQuestion
	}

	rand.Shuffle(len(combined), func(i, j int) {
		combined[i], combined[j] = combined[j], combined[i]
		isNew[i], isNew[j] = isNew[j], isNew[i]
	})

	seenIDs := make(map[string]bool, len(combined))
	for _, q := range combined {
		seenIDs[q.ID] = true
	}

	sessionID, err := c.Sessions.Create(ctx, now)
	if err != nil {
		return nil, err
	}

	ls := &liveSession{
		questions: combined,
		isNew:     isNew,
		shuffles:  make(map[int][4]int),
		seenIDs:   seenIDs,
		seenWords: seenWords,
		target:    c.SessionSize,
	}
	c.live.Store(sessionID, ls)

	ls.mu.Lock()
	defer ls.mu.Unlock()
	return c.snapshotLocked(ctx, sessionID, ls), nil
}

// Resume returns the current snapshot for a reconnecting client: the
// served question if one is outstanding.
func (c *Composer) Resume(ctx context.Context, sessionID int64) (*transport.QuestionSnapshot, error) {
	ls, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ended || ls.current >= len(ls.questions) {
		return nil, ErrNoCurrentQuestion
	}
	return c.snapshotLocked(ctx, sessionID, ls), nil
}

// Answer compares the client's choice against the served question,
// grades it through the SRS engine, persists the outcome, triggers a
// buffer check, and advances to the next question or ends the session.
func (c *Composer) Answer(ctx context.Context, sessionID int64, selectedIndex int, responseMs int64) (*transport.AnswerResult, error) {
	ls, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ended || ls.current >= len(ls.questions) {
		return nil, ErrNoCurrentQuestion
	}

	now := time.Now()
	idx := ls.current
	q := ls.questions[idx]
	shuffle := c.shuffleForLocked(ls, idx)

	displayCorrect := 0
	for pos, underlying := range shuffle {
		if underlying == q.CorrectIndex {
			displayCorrect = pos
			break
		}
	}
	correct := selectedIndex == displayCorrect

	ls.total++
	if correct {
		ls.correct++
	}

	var responseTime *time.Duration
	if responseMs > 0 {
		d := time.Duration(responseMs) * time.Millisecond
		responseTime = &d
	}
	quality := srs.QualityFromAnswer(correct, responseTime)

	priorState := srs.DefaultState
	var priorNextReview time.Time
	prior, progErr := c.Progress.Get(ctx, q.TargetWord, q.ClusterTitle)
	if progErr != nil && !errors.Is(progErr, repository.ErrNotFound) {
		return nil, progErr
	}
	if progErr == nil && prior != nil {
		priorState = srs.State{EasinessFactor: prior.EasinessFactor, IntervalDays: prior.IntervalDays, Repetitions: prior.Repetitions}
		priorNextReview = prior.NextReview
	}

	decision := srs.Record(quality, priorState, priorNextReview, now, c.ArchiveThresholdDays)
	if err := c.Progress.Upsert(ctx, q.TargetWord, q.ClusterTitle, decision.State.EasinessFactor, decision.State.IntervalDays, decision.State.Repetitions, decision.NextReview, correct, now); err != nil {
		return nil, err
	}
	if decision.Archived {
		if err := c.Progress.SetArchived(ctx, q.TargetWord, q.ClusterTitle, true); err != nil {
			return nil, err
		}
	}

	underlyingChosen := -1
	if selectedIndex >= 0 && selectedIndex < len(shuffle) {
		underlyingChosen = shuffle[selectedIndex]
	}
	if err := c.Questions.MarkAnswered(ctx, q.ID, underlyingChosen, correct, responseMs, strconv.FormatInt(sessionID, 10)); err != nil {
		return nil, err
	}

	ls.seenIDs[q.ID] = true
	ls.seenWords[strings.ToLower(q.TargetWord)] = true
	ls.current++

	shortfall := ls.target - (len(ls.questions) - ls.current)
	if shortfall < 0 {
		shortfall = 0
	}
	if err := c.Buffer.Check(ctx, shortfall); err != nil {
		c.Logger.Warn("buffer check failed after answer", "error", err)
	}

	result := &transport.AnswerResult{
		Correct:         correct,
		CorrectIndex:    displayCorrect,
		CorrectWord:     q.CorrectWord(),
		Explanation:     q.Explanation,
		ContextSentence: q.ContextSentence,
		AudioHash:       c.resolveAudioHash(ctx, q.ContextSentence),
		Archive: transport.ArchiveInfo{
			Archived:         decision.Archived,
			Reason:           decision.Reason,
			QuestionID:       q.ID,
			IntervalDays:     decision.State.IntervalDays,
			ArchiveThreshold: decision.ArchiveThreshold,
		},
	}

	if ls.current < len(ls.questions) {
		result.SessionProgress = c.progressLocked(ls)
		result.NextQuestion = c.snapshotLocked(ctx, sessionID, ls)
		return result, nil
	}

	if more := c.loadMoreLocked(ctx, ls); more > 0 {
		result.SessionProgress = c.progressLocked(ls)
		result.NextQuestion = c.snapshotLocked(ctx, sessionID, ls)
		return result, nil
	}

	if c.Buffer.InFlight() {
		result.SessionProgress = c.progressLocked(ls)
		result.SessionProgress.Generating = true
		return result, nil
	}

	ls.ended = true
	c.live.Delete(sessionID)
	result.SessionComplete = true
	result.SessionProgress = c.progressLocked(ls)
	result.Summary = &transport.SessionSummary{SessionID: sessionID, QuestionsTotal: ls.total, QuestionsCorrect: ls.correct}
	if sess, err := c.Sessions.Get(ctx, sessionID); err == nil {
		sess.QuestionsTotal = ls.total
		sess.QuestionsCorrect = ls.correct
		endedAt := time.Now()
		sess.EndedAt = &endedAt
		if updErr := c.Sessions.Update(ctx, sess); updErr != nil {
			c.Logger.Warn("failed to persist session totals", "error", updErr)
		}
	}
	return result, nil
}

// Progress returns a one-shot progress snapshot for sessionID.
func (c *Composer) Progress(ctx context.Context, sessionID int64) (*transport.Progress, error) {
	ls, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	p := c.progressLocked(ls)
	return &p, nil
}

// progressStreamInterval is the live-progress-stream tick/heartbeat
// period.
const progressStreamInterval = time.Second

// ProgressStream opens a long-lived subscription for sessionID: it
// emits a ProgressSnapshot once per progressStreamInterval (doubling as
// both the change notification and the heartbeat, since each tick
// recomputes the full snapshot) until ctx is cancelled or the session
// ends, whichever comes first. The returned channel is always closed
// before ProgressStream's goroutine exits, so a ranging caller
// terminates cleanly on shutdown or session end without needing to
// watch ctx itself.
func (c *Composer) ProgressStream(ctx context.Context, sessionID int64) (<-chan transport.ProgressSnapshot, error) {
	if _, err := c.lookup(sessionID); err != nil {
		return nil, err
	}

	out := make(chan transport.ProgressSnapshot)
	go func() {
		defer close(out)
		ticker := time.NewTicker(progressStreamInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ls, err := c.lookup(sessionID)
				if err != nil {
					return
				}
				ls.mu.Lock()
				snap := transport.ProgressSnapshot{SessionID: sessionID, Progress: c.progressLocked(ls)}
				ls.mu.Unlock()
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Finish ends a session early, persists its totals, and removes its
// in-memory state.
func (c *Composer) Finish(ctx context.Context, sessionID int64) (*transport.SessionSummary, error) {
	ls, err := c.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	ls.ended = true
	total, correct := ls.total, ls.correct
	ls.mu.Unlock()

	c.live.Delete(sessionID)

	sess, err := c.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.QuestionsTotal = total
	sess.QuestionsCorrect = correct
	endedAt := time.Now()
	sess.EndedAt = &endedAt
	if err := c.Sessions.Update(ctx, sess); err != nil {
		return nil, err
	}

	return &transport.SessionSummary{SessionID: sessionID, QuestionsTotal: total, QuestionsCorrect: correct}, nil
}

func (c *Composer) lookup(sessionID int64) (*liveSession, error) {
	v, ok := c.live.Load(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*liveSession), nil
}

// loadMoreLocked attempts to pull more questions from the three pools,
// excluding already-seen ids/words, appending any found to ls.questions.
// Returns the number of questions added.
func (c *Composer) loadMoreLocked(ctx context.Context, ls *liveSession) int {
	now := time.Now()
	reviewQs, err := c.Questions.GetReviewQuestions(ctx, now, reviewPoolLimit)
	if err != nil {
		c.Logger.Warn("load-more review pool failed", "error", err)
		reviewQs = nil
	}
	newQs, err := c.Questions.GetNewQuestions(ctx, c.SessionSize)
	if err != nil {
		c.Logger.Warn("load-more new pool failed", "error", err)
		newQs = nil
	}
	exclude := make([]string, 0, len(ls.seenWords))
	for w := range ls.seenWords {
		exclude = append(exclude, w)
	}
	reinforcement, err := c.Questions.GetActiveWordNewQuestions(ctx, c.SessionSize, exclude)
	if err != nil {
		c.Logger.Warn("load-more reinforcement pool failed", "error", err)
		reinforcement = nil
	}

	pools := []struct {
		questions []question.Question
		isNew     bool
	}{
		{reviewQs, false},
		{newQs, true},
		{reinforcement, false},
	}

	added := 0
	for _, pool := range pools {
		for _, q := range pool.questions {
			if ls.seenIDs[q.ID] {
				continue
			}
			ls.seenIDs[q.ID] = true
			ls.seenWords[strings.ToLower(q.TargetWord)] = true
			ls.questions = append(ls.questions, q)
			ls.isNew = append(ls.isNew, pool.isNew)
			added++
		}
	}
	return added
}

// shuffleForLocked returns the cached display order for question idx,
// computing and caching it on first access so Resume and repeated
// delivery return the same order.
func (c *Composer) shuffleForLocked(ls *liveSession, idx int) [4]int {
	if order, ok := ls.shuffles[idx]; ok {
		return order
	}
	order := [4]int{0, 1, 2, 3}
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	ls.shuffles[idx] = order
	return order
}

func (c *Composer) snapshotLocked(ctx context.Context, sessionID int64, ls *liveSession) *transport.QuestionSnapshot {
	idx := ls.current
	q := ls.questions[idx]
	order := c.shuffleForLocked(ls, idx)

	var choices [4]string
	var details [4]transport.ChoiceDetail
	correctIndex := 0
	for pos, underlying := range order {
		choices[pos] = q.Choices[underlying]
		d := q.ChoiceDetails[underlying]
		details[pos] = transport.ChoiceDetail{Word: d.Word, BaseWord: d.BaseWord, Meaning: d.Meaning, Distinction: d.Distinction, Why: d.Why}
		if underlying == q.CorrectIndex {
			correctIndex = pos
		}
	}

	prog := c.progressLocked(ls)
	return &transport.QuestionSnapshot{
		SessionID:       sessionID,
		ID:              q.ID,
		QuestionType:    string(q.QuestionType),
		Stem:            q.Stem,
		Choices:         choices,
		ChoiceDetails:   details,
		CorrectIndex:    correctIndex,
		CorrectWord:     choices[correctIndex],
		Explanation:     q.Explanation,
		ContextSentence: q.ContextSentence,
		ClusterTitle:    q.ClusterTitle,
		IsNew:           ls.isNew[idx],
		AudioHash:       c.resolveAudioHash(ctx, q.ContextSentence),
		Progress:        prog,
	}
}

// resolveAudioHash returns the content-hash cache key for text's
// narration, synthesizing and caching it on a miss. It returns "" if no
// TTS provider is wired, text is empty, or synthesis fails — audio is a
// best-effort addition, never a reason to fail question delivery.
func (c *Composer) resolveAudioHash(ctx context.Context, text string) string {
	if c.TTS == nil || c.AudioCache == nil || text == "" {
		return ""
	}
	hash := tts.ContentHash(text)
	if _, cached, err := c.AudioCache.Get(ctx, hash); err == nil && cached {
		return hash
	}
	if _, err := c.TTS.Synthesize(ctx, text); err != nil {
		c.Logger.Warn("tts synthesis failed", "error", err)
		return ""
	}
	if err := c.AudioCache.Put(ctx, hash, hash+".mp3"); err != nil {
		c.Logger.Warn("audio cache put failed", "error", err)
	}
	return hash
}

func (c *Composer) progressLocked(ls *liveSession) transport.Progress {
	ready, err := c.Questions.ReadyCount(context.Background())
	if err != nil {
		ready = 0
	}
	remaining := len(ls.questions) - ls.current
	return transport.Progress{
		Answered:   ls.total,
		Correct:    ls.correct,
		Ready:      ready,
		Target:     ls.target,
		Generating: c.Buffer.InFlight(),
		HasNext:    remaining > 0,
	}
}
