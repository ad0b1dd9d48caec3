package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool runs the background jobs of the API process (today_points reset)
// and waits for them on shutdown
type Pool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// Option configures a Pool
type Option func(*Pool)

// WithClock sets the time source used for schedule computation
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// WithTimer sets the function that waits between scheduled runs
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(p *Pool) { p.after = after }
}

// NewPool creates a pool bound to a fresh root context
func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit runs task on its own goroutine. A panicking task is logged and
// does not take the process down.
func (p *Pool) Submit(task func(ctx context.Context)) {
	p.run(p.ctx, task)
}

// SubmitWithTimeout runs task with a deadline derived from the pool context
func (p *Pool) SubmitWithTimeout(timeout time.Duration, task func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	p.run(ctx, func(ctx context.Context) {
		defer cancel()
		task(ctx)
	})
}

func (p *Pool) run(ctx context.Context, task func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("❌ [Worker] Background task panicked", "panic", r)
			}
		}()
		task(ctx)
	}()
}

// Shutdown cancels every task and waits up to timeout for them to return
func (p *Pool) Shutdown(timeout time.Duration) {
	p.logger.Info("🛑 [Worker] Initiating graceful shutdown...")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Info("✅ [Worker] All background tasks completed")
	case <-timer.C:
		p.logger.Warn("⚠️ [Worker] Shutdown timeout exceeded, some tasks may not have completed",
			"timeout", timeout,
		)
	}
}
