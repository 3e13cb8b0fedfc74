package transport

import (
	"context"

	"github.com/vocabtrainer/server/internal/domain/buffer"
	"github.com/vocabtrainer/server/internal/generation"
)

// Composer is the subset of the session composer's surface the
// Dispatcher needs — defined here, not imported from the session
// package, so transport does not depend on the session package.
type Composer interface {
	Start(ctx context.Context) (*QuestionSnapshot, error)
	Answer(ctx context.Context, sessionID int64, selectedIndex int, responseMs int64) (*AnswerResult, error)
	Progress(ctx context.Context, sessionID int64) (*Progress, error)
	Finish(ctx context.Context, sessionID int64) (*SessionSummary, error)
	Resume(ctx context.Context, sessionID int64) (*QuestionSnapshot, error)
}

// Dispatcher is the seam internal/mcp's tool handlers call into. It
// owns nothing; it only orchestrates the preempt/resume dance around
// chat and forwards everything else to the Composer.
type Dispatcher struct {
	Composer  Composer
	Scheduler *buffer.Scheduler
	Buffer    *buffer.Controller
	Chat      generation.Provider
}

// NewDispatcher constructs a Dispatcher over the session composer, the
// buffer scheduler/controller it preempts and resumes, and the
// generation provider chat streams from.
func NewDispatcher(composer Composer, scheduler *buffer.Scheduler, ctrl *buffer.Controller, chat generation.Provider) *Dispatcher {
	return &Dispatcher{Composer: composer, Scheduler: scheduler, Buffer: ctrl, Chat: chat}
}

func (d *Dispatcher) StartSession(ctx context.Context) (*QuestionSnapshot, error) {
	return d.Composer.Start(ctx)
}

func (d *Dispatcher) AnswerQuestion(ctx context.Context, sessionID int64, selectedIndex int, responseMs int64) (*AnswerResult, error) {
	return d.Composer.Answer(ctx, sessionID, selectedIndex, responseMs)
}

func (d *Dispatcher) SessionProgress(ctx context.Context, sessionID int64) (*Progress, error) {
	return d.Composer.Progress(ctx, sessionID)
}

func (d *Dispatcher) FinishSession(ctx context.Context, sessionID int64) (*SessionSummary, error) {
	return d.Composer.Finish(ctx, sessionID)
}

func (d *Dispatcher) ResumeSession(ctx context.Context, sessionID int64) (*QuestionSnapshot, error) {
	return d.Composer.Resume(ctx, sessionID)
}

// ChatStream streams an interactive completion, preempting every tracked
// background build first and triggering a buffer check to resume once
// the stream ends.
func (d *Dispatcher) ChatStream(ctx context.Context, req generation.CompletionRequest) (<-chan generation.Chunk, error) {
	d.Scheduler.Preempt()

	ch, err := d.Chat.StreamCompletion(ctx, req)
	if err != nil {
		d.Buffer.Check(ctx, 0)
		return nil, err
	}

	out := make(chan generation.Chunk)
	go func() {
		defer close(out)
		defer d.Buffer.Check(context.Background(), 0)
		for chunk := range ch {
			select {
			case <-ctx.Done():
				return
			case out <- chunk:
			}
		}
	}()
	return out, nil
}
