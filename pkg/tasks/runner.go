package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wecantrust/donations-backend/pkg/logger"
)

// Runner executes named background tasks detached from the request that
// spawned them. Panics are recovered and logged so a single bad task cannot
// take the process down.
type Runner struct {
	logg    *logger.Logger
	timeout time.Duration

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func NewRunner(logg *logger.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{logg: logg, timeout: timeout}
}

// Go runs fn on its own goroutine with a fresh context bounded by the
// runner's timeout. Fields already attached to ctx do not carry over; the
// task name is attached instead.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		if r.logg != nil {
			r.logg.Warn(context.Background(), fmt.Sprintf("task %s rejected: runner closed", name))
		}
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if r.logg != nil {
			ctx = r.logg.WithField(ctx, "task", name)
		}

		defer func() {
			if rec := recover(); rec != nil && r.logg != nil {
				r.logg.Error(ctx, "task panicked", fmt.Errorf("panic: %v", rec))
			}
		}()

		if err := fn(ctx); err != nil && r.logg != nil {
			r.logg.Error(ctx, "task failed", err)
		}
	}()
}

// Shutdown stops accepting tasks and waits for in-flight tasks to finish or
// the context to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
