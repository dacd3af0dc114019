package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

// Runner supervises detached tasks whose results are only observed for logging.
// Callers never wait on a task; Shutdown drains whatever is still running.
type Runner struct {
	log     *logger.Logger
	timeout time.Duration
	observe func(name string, err error)

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Runner)

// WithObserver registers a callback invoked once per finished task.
func WithObserver(fn func(name string, err error)) Option {
	return func(r *Runner) { r.observe = fn }
}

func NewRunner(log *logger.Logger, timeout time.Duration, opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		log:     log.With("component", "BackgroundRunner"),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go dispatches fn. It reports false when the runner is already shut down.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("Background task rejected after shutdown", "task", name)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx := r.ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		start := time.Now()
		err := r.run(ctx, name, fn)
		if r.observe != nil {
			r.observe(name, err)
		}
		if err != nil {
			r.log.Warn("Background task failed", "task", name, "error", err, "duration_ms", time.Since(start).Milliseconds())
			return
		}
		r.log.Debug("Background task finished", "task", name, "duration_ms", time.Since(start).Milliseconds())
	}()
	return true
}

func (r *Runner) run(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task %s panicked: %v", name, rec)
		}
	}()
	return fn(ctx)
}

// Shutdown stops accepting tasks and waits for running ones until ctx expires,
// at which point outstanding task contexts are cancelled.
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
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
