package topic

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dmitrymomot/topictree/core/logger"
)

// ErrorHandler receives failures of asynchronous deliveries, which have no caller to return to.
type ErrorHandler func(ctx context.Context, meta Meta, err error)

// envelope is one queued asynchronous publish.
type envelope struct {
	ctx     context.Context
	payload any
	meta    Meta
}

// deliver is the end of every middleware chain: it walks from n up to the
// root, calling once subscribers and then persistent subscribers on each node.
func (n *node) deliver(ctx context.Context, payload any, meta Meta) error {
	t := n.tree
	var errs []error

	for cur := n; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		once := cur.once
		cur.once = nil
		// Appends never touch the first len(subs) elements, so the header is a stable snapshot.
		subs := cur.subscribers
		cur.mu.Unlock()

		if len(once) == 0 && len(subs) == 0 {
			continue
		}

		hop := meta
		hop.Path = cur.path
		hopCtx := WithMeta(ctx, hop)

		for _, list := range [2][]*Subscriber{once, subs} {
			for _, s := range list {
				err := t.invoke(hopCtx, s, payload, hop)
				if err == nil {
					continue
				}
				err = fmt.Errorf("subscriber %s on %q failed: %w", s.Name(), cur.path, err)
				if !t.isolate {
					return err
				}
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// invoke calls a single subscriber. Panics are only recovered when the tree
// isolates faults; otherwise they unwind to the publisher.
func (t *tree) invoke(ctx context.Context, s *Subscriber, payload any, meta Meta) (err error) {
	if t.isolate {
		defer func() {
			if r := recover(); r != nil {
				t.stats.failed.Add(1)
				err = &PanicError{Value: r, Stack: debug.Stack()}
				t.logger.ErrorContext(ctx, "subscriber panicked",
					logger.Subscriber(s.Name()),
					logger.Panic(r))
			}
		}()
	}

	err = s.handler.Handle(ctx, payload, meta)
	if err != nil {
		t.stats.failed.Add(1)
	} else {
		t.stats.delivered.Add(1)
	}
	return err
}

// publishSync runs the composed pipeline in the caller's goroutine.
func (n *node) publishSync(ctx context.Context, payload any) error {
	if n.tree.closed.Load() {
		return ErrClosed
	}

	meta := n.nextMeta(ModeSync)
	n.tree.stats.publishedSync.Add(1)
	return n.currentPipeline()(WithMeta(ctx, meta), payload, meta)
}

// publishAsync appends the payload to the node's pending batch. Only the
// publish that makes the batch non-empty schedules a flush.
//
// Scheduling happens under n.mu: a batch that is non-empty always has a flush
// scheduled, and a failed Schedule only rolls back the envelope of this call.
func (n *node) publishAsync(ctx context.Context, payload any) error {
	t := n.tree
	if t.closed.Load() {
		return ErrClosed
	}

	meta := n.nextMeta(ModeAsync)
	env := envelope{
		ctx:     WithMeta(context.WithoutCancel(ctx), meta),
		payload: payload,
		meta:    meta,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.pending = append(n.pending, env)
	if len(n.pending) == 1 {
		if err := t.scheduler.Schedule(n.flush); err != nil {
			n.pending = nil
			return fmt.Errorf("schedule flush for %q: %w", n.path, err)
		}
	}

	t.stats.publishedAsync.Add(1)
	t.stats.pending.Add(1)
	return nil
}

// flush delivers the pending batch in FIFO order. A failing payload is
// reported and does not prevent the rest of the batch from being delivered.
func (n *node) flush() {
	t := n.tree

	n.mu.Lock()
	batch := n.pending
	n.pending = nil
	t.stats.pending.Add(-int64(len(batch)))
	n.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	t.stats.flushes.Add(1)

	start := time.Now()
	for _, env := range batch {
		if err := n.runEnvelope(env); err != nil {
			t.errorHandler(env.ctx, env.meta, err)
		}
	}

	t.logger.Debug("topic flushed",
		logger.Topic(n.path),
		logger.Count("batch", len(batch)),
		logger.Elapsed(start))
}

func (n *node) runEnvelope(env envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			n.tree.stats.failed.Add(1)
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return n.currentPipeline()(env.ctx, env.payload, env.meta)
}
