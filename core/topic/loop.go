package topic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/topictree/core/logger"
)

// Scheduler runs deferred tasks after the caller's current work.
//
// Implementations must run tasks one at a time and in the order they were
// scheduled; per-topic ordering of asynchronous publishes relies on it.
// Schedule is called with the publishing topic locked. It must not run the
// task before returning or call back into the tree.
type Scheduler interface {
	Schedule(task func()) error
}

// Loop is a single-threaded task queue. Tasks are kept in an unbounded FIFO
// and executed either by a worker started with Start, or by the caller
// through RunPending. Both paths are serialized, so two tasks never run at the same time.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	cancel  context.CancelFunc
	stopped chan struct{}

	wake  chan struct{}
	runMu sync.Mutex

	shutdownTimeout time.Duration
	logger          *slog.Logger

	scheduled      atomic.Int64
	executed       atomic.Int64
	panicked       atomic.Int64
	lastActivityAt atomic.Int64
}

// LoopStats provides observability metrics for the loop.
type LoopStats struct {
	TasksScheduled int64
	TasksExecuted  int64
	TasksPanicked  int64
	Queued         int
	IsRunning      bool
	LastActivityAt time.Time
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopShutdownTimeout bounds how long Stop waits for queued tasks to drain.
func WithLoopShutdownTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.shutdownTimeout = d
		}
	}
}

// WithLoopLogger configures structured logging for the loop.
func WithLoopLogger(log *slog.Logger) LoopOption {
	return func(l *Loop) {
		if log != nil {
			l.logger = log
		}
	}
}

// NewLoop creates a loop. Nothing runs until Start or RunPending is called.
//
// Example:
//
//	loop := topic.NewLoop()
//	root := topic.New(topic.WithScheduler(loop))
//
//	root.Resolve("a").PublishAsync(ctx, 1)
//	loop.RunPending() // delivers the payload
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:            make(chan struct{}, 1),
		shutdownTimeout: 30 * time.Second,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schedule appends a task to the queue. It never blocks.
func (l *Loop) Schedule(task func()) error {
	if task == nil {
		return nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	l.scheduled.Add(1)

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// RunPending runs the tasks that were queued when it was called and returns
// how many ran. Tasks scheduled by those tasks wait for the next turn.
func (l *Loop) RunPending() int {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	l.mu.Lock()
	tasks := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, task := range tasks {
		l.exec(task)
	}
	if len(tasks) > 0 {
		l.lastActivityAt.Store(time.Now().Unix())
	}
	return len(tasks)
}

// RunUntilIdle keeps taking turns until the queue is empty.
func (l *Loop) RunUntilIdle() int {
	total := 0
	for {
		n := l.RunPending()
		if n == 0 {
			return total
		}
		total += n
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			l.logger.Error("task panicked",
				logger.Panic(r),
				logger.StackTrace(debug.Stack()))
		}
	}()
	defer l.executed.Add(1)
	task()
}

// Start runs queued tasks until the context is cancelled or Stop is called.
// This is a blocking operation; use Run for the errgroup pattern or call it in a goroutine.
// Tasks still queued at shutdown are executed before Start returns.
// A loop cannot be restarted once it has stopped.
func (l *Loop) Start(ctx context.Context) error {
	ctx, stopped, err := l.begin(ctx)
	if err != nil {
		return err
	}
	return l.serve(ctx, stopped)
}

// begin marks the loop as running. serve must be called with its results.
func (l *Loop) begin(ctx context.Context) (context.Context, chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil, nil, ErrLoopAlreadyStarted
	}
	if l.closed {
		return nil, nil, ErrLoopClosed
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.stopped = make(chan struct{})
	return ctx, l.stopped, nil
}

func (l *Loop) serve(ctx context.Context, stopped chan struct{}) error {
	defer close(stopped)

	l.logger.InfoContext(ctx, "task loop started")

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			cancel := l.cancel
			l.cancel = nil
			l.mu.Unlock()
			if cancel != nil {
				cancel()
			}

			drained := l.RunUntilIdle()
			l.logger.Info("task loop stopped", logger.Count("drained", drained))
			return ctx.Err()
		case <-l.wake:
			l.RunPending()
		}
	}
}

// Stop shuts the loop down, waiting up to the shutdown timeout for queued tasks.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return ErrLoopNotStarted
	}
	cancel, stopped := l.cancel, l.stopped
	l.cancel = nil
	l.mu.Unlock()

	cancel()

	select {
	case <-stopped:
		return nil
	case <-time.After(l.shutdownTimeout):
		l.logger.Warn("task loop shutdown timeout exceeded - queued tasks may be abandoned",
			logger.Duration(l.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", l.shutdownTimeout)
	}
}

// Run wraps Start for errgroup.Group.Go. Cancelling ctx stops the loop after
// the queued tasks ran and is not reported as an error.
//
// Example:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(loop.Run(ctx))
func (l *Loop) Run(ctx context.Context) func() error {
	return func() error {
		err := l.Start(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// Stats returns current loop statistics.
func (l *Loop) Stats() LoopStats {
	l.mu.Lock()
	queued := len(l.queue)
	running := l.cancel != nil
	l.mu.Unlock()

	var last time.Time
	if ts := l.lastActivityAt.Load(); ts > 0 {
		last = time.Unix(ts, 0)
	}

	return LoopStats{
		TasksScheduled: l.scheduled.Load(),
		TasksExecuted:  l.executed.Load(),
		TasksPanicked:  l.panicked.Load(),
		Queued:         queued,
		IsRunning:      running,
		LastActivityAt: last,
	}
}

// Healthcheck reports an error when the loop is not running.
func (l *Loop) Healthcheck(ctx context.Context) error {
	if !l.Stats().IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrLoopNotStarted)
	}
	return nil
}
