package topic_test

import (
	"context"
	"sync"

	"github.com/dmitrymomot/topictree/core/topic"
)

// recorder collects the path and payload of every delivery it receives.
type recorder struct {
	mu       sync.Mutex
	paths    []string
	payloads []any
	metas    []topic.Meta
	sub      *topic.Subscriber
}

func newRecorder() *recorder {
	r := &recorder{}
	r.sub = topic.Func(func(_ context.Context, payload any, meta topic.Meta) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.paths = append(r.paths, meta.Path)
		r.payloads = append(r.payloads, payload)
		r.metas = append(r.metas, meta)
		return nil
	})
	return r
}

func (r *recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) Payloads() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.payloads...)
}

func (r *recorder) Metas() []topic.Meta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]topic.Meta(nil), r.metas...)
}

// newManualTree returns a root topic whose async deliveries only run when the
// returned loop is turned by hand.
func newManualTree(opts ...topic.Option) (*topic.Topic, *topic.Loop) {
	loop := topic.NewLoop()
	return topic.New(append([]topic.Option{topic.WithScheduler(loop)}, opts...)...), loop
}

// tagWare returns a middleware appending tag to calls before calling next.
func tagWare(mu *sync.Mutex, calls *[]int, tag int) *topic.Middleware {
	return topic.Ware(func(ctx context.Context, payload any, meta topic.Meta, next topic.Next) error {
		mu.Lock()
		*calls = append(*calls, tag)
		mu.Unlock()
		return next(ctx, payload, meta)
	})
}

// starWare appends "*" to string payloads and records what it produced.
func starWare(mu *sync.Mutex, calls *[]string) *topic.Middleware {
	return topic.Ware(func(ctx context.Context, payload any, meta topic.Meta, next topic.Next) error {
		s := payload.(string) + "*"
		mu.Lock()
		*calls = append(*calls, s)
		mu.Unlock()
		return next(ctx, s, meta)
	})
}
