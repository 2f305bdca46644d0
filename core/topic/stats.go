package topic

import (
	"context"
	"errors"
	"sync/atomic"
)

type treeStats struct {
	publishedSync  atomic.Int64
	publishedAsync atomic.Int64
	delivered      atomic.Int64
	failed         atomic.Int64
	flushes        atomic.Int64
	pending        atomic.Int64
	nodes          atomic.Int64
}

// Stats provides observability metrics for a topic tree.
type Stats struct {
	PublishedSync  int64 // PublishSync calls accepted
	PublishedAsync int64 // PublishAsync calls accepted
	Delivered      int64 // subscriber calls that returned nil
	Failed         int64 // subscriber calls that failed, plus recovered async panics
	Flushes        int64 // async batches delivered
	Pending        int64 // async payloads waiting for a flush
	Topics         int64 // nodes in the tree, root included
	Closed         bool
}

// Stats returns the counters of the whole tree the topic belongs to.
func (t *Topic) Stats() Stats {
	s := &t.n.tree.stats
	return Stats{
		PublishedSync:  s.publishedSync.Load(),
		PublishedAsync: s.publishedAsync.Load(),
		Delivered:      s.delivered.Load(),
		Failed:         s.failed.Load(),
		Flushes:        s.flushes.Load(),
		Pending:        s.pending.Load(),
		Topics:         s.nodes.Load(),
		Closed:         t.n.tree.closed.Load(),
	}
}

// Healthcheck validates that the tree accepts publishes and, when it owns
// its loop, that the loop is running.
func (t *Topic) Healthcheck(ctx context.Context) error {
	tr := t.n.tree
	if tr.closed.Load() {
		return errors.Join(ErrHealthcheckFailed, ErrClosed)
	}
	if tr.loop != nil {
		return tr.loop.Healthcheck(ctx)
	}
	return nil
}
