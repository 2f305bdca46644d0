package topic

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dmitrymomot/topictree/core/logger"
	"github.com/google/uuid"
)

// Next continues the middleware chain.
type Next func(ctx context.Context, payload any, meta Meta) error

// MiddlewareFunc intercepts a payload before delivery. It may pass a different
// payload to next. Returning without calling next drops the payload.
type MiddlewareFunc func(ctx context.Context, payload any, meta Meta, next Next) error

// Middleware is the registration token for a MiddlewareFunc.
// Like subscribers, middleware are removed by pointer identity.
type Middleware struct {
	id   uuid.UUID
	name string
	fn   MiddlewareFunc
}

// NewMiddleware wraps fn into a middleware token.
func NewMiddleware(name string, fn MiddlewareFunc) *Middleware {
	if fn == nil {
		return nil
	}
	return &Middleware{
		id:   uuid.New(),
		name: name,
		fn:   fn,
	}
}

// Ware is shorthand for NewMiddleware("", fn).
func Ware(fn MiddlewareFunc) *Middleware {
	return NewMiddleware("", fn)
}

// ID returns the identifier generated for the middleware.
func (m *Middleware) ID() uuid.UUID {
	return m.id
}

func (m *Middleware) usable() bool {
	return m != nil && m.fn != nil
}

// Name returns the middleware name, or its ID when no name was given.
func (m *Middleware) Name() string {
	if m.name != "" {
		return m.name
	}
	return m.id.String()
}

// compose builds the delivery function for wares, calling them in slice
// order and finishing with terminal.
func compose(wares []*Middleware, terminal Next) Next {
	f := terminal
	for i := len(wares) - 1; i >= 0; i-- {
		w, next := wares[i], f
		f = func(ctx context.Context, payload any, meta Meta) error {
			return w.fn(ctx, payload, meta, next)
		}
	}
	return f
}

// recompute rebuilds the composed delivery function of n and of every
// descendant. inherited holds the ancestors' middleware, root first.
// Callers must hold tree.wareMu.
func (n *node) recompute(inherited []*Middleware) {
	n.mu.Lock()
	wares := make([]*Middleware, 0, len(inherited)+len(n.wares))
	wares = append(wares, inherited...)
	wares = append(wares, n.wares...)
	n.pipeline = compose(wares, n.deliver)
	children := n.childNodes()
	n.mu.Unlock()

	for _, child := range children {
		child.recompute(wares)
	}
}

// inheritedWares collects the middleware of every ancestor, root first.
func (n *node) inheritedWares() []*Middleware {
	var chain [][]*Middleware
	for p := n.parent; p != nil; p = p.parent {
		p.mu.Lock()
		if len(p.wares) > 0 {
			chain = append(chain, p.wares)
		}
		p.mu.Unlock()
	}

	var wares []*Middleware
	for i := len(chain) - 1; i >= 0; i-- {
		wares = append(wares, chain[i]...)
	}
	return wares
}

// effectiveWares returns the inherited middleware followed by n's own.
func (n *node) effectiveWares() []*Middleware {
	wares := n.inheritedWares()
	n.mu.Lock()
	wares = append(wares, n.wares...)
	n.mu.Unlock()
	return wares
}

// LoggingMiddleware logs every payload passing through the topic with timing.
//
// Example:
//
//	root.Use(topic.LoggingMiddleware(log))
func LoggingMiddleware(log *slog.Logger) *Middleware {
	if log == nil {
		log = logger.Discard()
	}
	return NewMiddleware("logging", func(ctx context.Context, payload any, meta Meta, next Next) error {
		start := time.Now()
		err := next(ctx, payload, meta)

		attrs := []any{
			logger.Origin(meta.Origin),
			logger.Sequence(meta.Seq),
			logger.Mode(meta.Mode.String()),
			logger.Duration(time.Since(start)),
		}
		if err != nil {
			log.ErrorContext(ctx, "publish failed", append(attrs, logger.Error(err))...)
		} else {
			log.DebugContext(ctx, "publish delivered", attrs...)
		}
		return err
	})
}

// FilterMiddleware drops every payload for which keep returns false.
func FilterMiddleware(keep func(payload any, meta Meta) bool) *Middleware {
	return NewMiddleware("filter", func(ctx context.Context, payload any, meta Meta, next Next) error {
		if keep != nil && !keep(payload, meta) {
			return nil
		}
		return next(ctx, payload, meta)
	})
}

// RecoverMiddleware turns panics raised further down the chain into *PanicError.
// Note that a recovered panic still stops the rest of that fan-out.
func RecoverMiddleware() *Middleware {
	return NewMiddleware("recover", func(ctx context.Context, payload any, meta Meta, next Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return next(ctx, payload, meta)
	})
}
