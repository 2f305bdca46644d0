package topic

import "context"

// Mode selects how a payload is delivered.
type Mode uint8

const (
	// ModeAsync queues the payload and delivers it from the scheduler.
	ModeAsync Mode = iota
	// ModeSync delivers the payload before the publish call returns.
	ModeSync
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Meta describes a single publish call.
//
// Seq, Origin and Mode are fixed when the payload is published.
// Path is rewritten on every hop of the fan-out, so a subscriber on an ancestor
// topic sees its own path while Origin still names the topic published on.
type Meta struct {
	Seq    uint64 // per-topic publish counter, starting at 1
	Origin string // path of the topic the payload was published on
	Path   string // path of the topic currently delivering
	Mode   Mode
}

type metaCtx struct{}

// WithMeta attaches publish metadata to the context.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaCtx{}, meta)
}

// MetaFromContext extracts publish metadata from the context.
// The boolean is false when the context does not come from a delivery.
func MetaFromContext(ctx context.Context) (Meta, bool) {
	m, ok := ctx.Value(metaCtx{}).(Meta)
	return m, ok
}
