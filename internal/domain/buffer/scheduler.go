package buffer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// preemptWait is the bounded time Preempt and Shutdown give tracked
// tasks to observe cancellation.
const preemptWait = 2 * time.Second

// Scheduler owns the set of live background build tasks, letting the
// chat endpoint preempt them all and the buffer controller resume them
// once chat finishes.
type Scheduler struct {
	group   errgroup.Group
	cancels sync.Map // int64 -> context.CancelFunc
	nextID  atomic.Int64
	closed  atomic.Bool
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Track runs fn in a tracked goroutine derived from ctx. The task is
// removed from the tracked set when fn returns, for any reason.
func (s *Scheduler) Track(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.closed.Load() {
		return ErrShutdown
	}

	taskCtx, cancel := context.WithCancel(ctx)
	id := s.nextID.Add(1)
	s.cancels.Store(id, cancel)

	s.group.Go(func() error {
		defer func() {
			s.cancels.Delete(id)
			cancel()
		}()
		return fn(taskCtx)
	})
	return nil
}

// Preempt cancels every tracked background build and waits up to 2
// seconds for them to finish, so a live chat reply isn't competing with
// generation for the same backend.
func (s *Scheduler) Preempt() {
	s.cancels.Range(func(_, v any) bool {
		v.(context.CancelFunc)()
		return true
	})

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(preemptWait):
	}
}

// Shutdown preempts every tracked task and refuses to track new ones
// afterward, for process shutdown.
func (s *Scheduler) Shutdown() {
	s.closed.Store(true)
	s.Preempt()
}
