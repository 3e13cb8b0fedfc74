// Package buffer implements the background question-generation loop
// that keeps a floor of ready questions available, preemptible by
// interactive chat requests.
package buffer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vocabtrainer/server/internal/domain/builder"
	"github.com/vocabtrainer/server/internal/generation"
	"github.com/vocabtrainer/server/internal/repository"
)

// checkKey is the constant singleflight key every Check call shares,
// collapsing concurrent callers into a single decision.
const checkKey = "check"

// Controller maintains the ready-question floor: target =
// min_ready_questions + shortfall(live sessions).
type Controller struct {
	Questions repository.QuestionRepository
	Builder   *builder.Builder
	Provider  generation.Provider
	Scheduler *Scheduler
	Logger    *slog.Logger

	// MinReady is the configured buffer floor (min_ready_questions).
	MinReady int

	sf       singleflight.Group
	inFlight atomic.Bool
}

// NewController constructs a Controller over the Store, Builder,
// generation.Provider, and Scheduler.
func NewController(questions repository.QuestionRepository, b *builder.Builder, provider generation.Provider, scheduler *Scheduler, minReady int, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		Questions: questions,
		Builder:   b,
		Provider:  provider,
		Scheduler: scheduler,
		Logger:    logger,
		MinReady:  minReady,
	}
}

// InFlight reports whether a background build is currently running,
// without itself triggering a new Check.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// Check computes the ready-question target (MinReady + shortfall, the
// sum over live sessions of unmet demand) and, if the ready count falls
// short, spawns at most one tracked background build task to close the
// gap. Concurrent calls collapse via singleflight; only one physical
// build ever runs at a time, tracked by the in-flight flag.
func (c *Controller) Check(ctx context.Context, shortfall int) error {
	_, err, _ := c.sf.Do(checkKey, func() (any, error) {
		return nil, c.check(ctx, shortfall)
	})
	return err
}

func (c *Controller) check(ctx context.Context, shortfall int) error {
	if c.inFlight.Load() {
		return nil
	}

	ready, err := c.Questions.ReadyCount(ctx)
	if err != nil {
		return err
	}

	target := c.MinReady + shortfall
	needed := target - ready
	if needed <= 0 {
		return nil
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return nil
	}

	err = c.Scheduler.Track(ctx, func(taskCtx context.Context) error {
		defer c.inFlight.Store(false)
		return c.fill(taskCtx, needed)
	})
	if err != nil {
		c.inFlight.Store(false)
	}
	return err
}

// fill generates up to n questions, discarding any partial result the
// instant ctx is cancelled.
func (c *Controller) fill(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := c.Builder.Build(ctx, c.Provider, builder.Params{}); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.Logger.Warn("background question build failed", "error", err)
			continue
		}
	}
	return nil
}
