package topic

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/topictree/core/logger"
)

// Topic is the public handle of one node in a topic tree.
// A handle is bound to its node for its whole life and is safe for concurrent use.
// That covers the topic's own state; whether subscribers may overlap depends on
// the scheduler, see New.
type Topic struct {
	n *node
}

// New creates a topic tree and returns its root topic, whose path is "".
//
// Without WithScheduler the tree creates its own Loop, runs it on a background
// goroutine and stops it on Close. Asynchronous flushes then run on that
// goroutine while PublishSync runs on the caller's, so the same subscriber may
// execute concurrently with itself and must be safe for that. To keep every
// delivery on one goroutine, pass a Loop with WithScheduler and turn it with
// RunPending from the goroutine that publishes.
//
// Example:
//
//	root := topic.New(topic.WithLogger(log))
//	defer root.Close()
//
//	root.Resolve("orders.created").Subscribe(topic.Func(onOrder))
//	root.Resolve("orders.created").Publish(ctx, order)
func New(opts ...Option) *Topic {
	o := &options{
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	t := &tree{
		scheduler:    o.scheduler,
		isolate:      o.isolate,
		errorHandler: o.errorHandler,
		logger:       o.logger,
	}
	if t.errorHandler == nil {
		t.errorHandler = defaultErrorHandler(o.logger)
	}

	if t.scheduler == nil {
		loopOpts := append([]LoopOption{WithLoopLogger(o.logger)}, o.loopOptions...)
		loop := NewLoop(loopOpts...)
		ctx, stopped, err := loop.begin(context.Background())
		if err != nil {
			// A fresh loop always starts.
			panic(fmt.Sprintf("topic: start loop: %v", err))
		}
		go func() { _ = loop.serve(ctx, stopped) }()

		t.scheduler = loop
		t.loop = loop
	}

	t.root = newNode(t, nil, "")
	t.stats.nodes.Store(1)

	root := t.root.handle
	if len(o.middleware) > 0 {
		root.Use(o.middleware...)
	}
	return root
}

// Path returns the dotted path of the topic. The root path is "".
func (t *Topic) Path() string {
	return t.n.path
}

// String implements fmt.Stringer.
func (t *Topic) String() string {
	if t.n.path == "" {
		return "<root>"
	}
	return t.n.path
}

// Resolve returns the topic at path relative to t, creating missing topics.
// An empty path returns t itself.
//
// Example:
//
//	root.Resolve("a.b.c") == root.Resolve("a").Resolve("b.c") // true
func (t *Topic) Resolve(path string) *Topic {
	if path == "" {
		return t
	}
	return t.n.resolve(path).handle
}

// Subtopic is an alias of Resolve.
func (t *Topic) Subtopic(path string) *Topic {
	return t.Resolve(path)
}

// Pop returns the parent topic, or t itself when t is the root.
func (t *Topic) Pop() *Topic {
	if t.n.parent == nil {
		return t
	}
	return t.n.parent.handle
}

// Root returns the root topic of the tree.
func (t *Topic) Root() *Topic {
	return t.n.tree.root.handle
}

// Children returns the names of the direct subtopics, sorted.
func (t *Topic) Children() []string {
	return t.n.childNames()
}

// Publish delivers the payload asynchronously. It is PublishAsync.
func (t *Topic) Publish(ctx context.Context, payload any) error {
	return t.n.publishAsync(ctx, payload)
}

// PublishSync runs the middleware chain and delivers the payload to this topic's
// subscribers and every ancestor's subscribers before returning.
//
// The first failing middleware or subscriber aborts the delivery and its error is
// returned; panics reach the caller. WithFaultIsolation changes this: every
// subscriber runs and failures are joined.
//
// Delivery happens on the calling goroutine and is not serialized with the
// flushes of an owned loop: see New.
func (t *Topic) PublishSync(ctx context.Context, payload any) error {
	return t.n.publishSync(ctx, payload)
}

// PublishAsync queues the payload on this topic. All payloads queued on a topic
// before its pending flush runs are delivered by that single flush, in the order
// they were published. Context values are kept but cancellation is ignored: a
// queued payload is always delivered.
//
// Delivery failures are passed to the tree's ErrorHandler.
func (t *Topic) PublishAsync(ctx context.Context, payload any) error {
	return t.n.publishAsync(ctx, payload)
}

// Dispatch publishes with the given mode.
func (t *Topic) Dispatch(ctx context.Context, payload any, mode Mode) error {
	if mode == ModeSync {
		return t.PublishSync(ctx, payload)
	}
	return t.PublishAsync(ctx, payload)
}

// Use appends middleware to this topic. They run for publishes on this topic
// and its descendants, after the middleware of every ancestor.
func (t *Topic) Use(wares ...*Middleware) *Topic {
	tr := t.n.tree
	tr.wareMu.Lock()
	defer tr.wareMu.Unlock()

	t.n.mu.Lock()
	t.n.wares = appendUsable(t.n.wares, wares)
	t.n.mu.Unlock()

	t.n.recompute(t.n.inheritedWares())
	for _, w := range wares {
		if w.usable() {
			tr.logger.Debug("middleware added", logger.Topic(t.n.path), logger.Middleware(w.Name()))
		}
	}
	return t
}

// Unuse removes middleware from this topic by identity. Unknown middleware are ignored.
func (t *Topic) Unuse(wares ...*Middleware) *Topic {
	tr := t.n.tree
	tr.wareMu.Lock()
	defer tr.wareMu.Unlock()

	t.n.mu.Lock()
	t.n.wares = without(t.n.wares, wares)
	t.n.mu.Unlock()

	t.n.recompute(t.n.inheritedWares())
	tr.logger.Debug("middleware removed", logger.Topic(t.n.path), logger.Count("removed", len(wares)))
	return t
}

// Recompute rebuilds the composed middleware chain of this topic and its whole
// subtree. Use and Unuse call it; it is exported for diagnostics.
func (t *Topic) Recompute() *Topic {
	tr := t.n.tree
	tr.wareMu.Lock()
	defer tr.wareMu.Unlock()

	t.n.recompute(t.n.inheritedWares())
	return t
}

// Drain blocks until every asynchronous publish issued on the tree before the
// call has been delivered, or the context ends. It must not be called from a
// subscriber or middleware running on the scheduler.
func (t *Topic) Drain(ctx context.Context) error {
	done := make(chan struct{})
	if err := t.n.tree.scheduler.Schedule(func() { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further publishes on the whole tree and, when the tree owns its
// loop, stops it after the already queued payloads are delivered.
// Closing twice returns ErrClosed.
func (t *Topic) Close() error {
	tr := t.n.tree
	if !tr.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if tr.loop != nil {
		return tr.loop.Stop()
	}
	return nil
}
