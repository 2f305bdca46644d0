package topic

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/topictree/core/logger"
)

// Option configures a topic tree created with New.
type Option func(*options)

type options struct {
	scheduler    Scheduler
	logger       *slog.Logger
	isolate      bool
	errorHandler ErrorHandler
	loopOptions  []LoopOption
	middleware   []*Middleware
}

// WithScheduler sets the scheduler used for asynchronous delivery.
// The tree never starts or stops a scheduler supplied this way.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithLogger configures structured logging for the tree and its owned loop.
// Use logger.Discard() to disable logging (the default).
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithFaultIsolation keeps delivering to the remaining subscribers after one
// fails or panics. Failures are collected and returned together.
// By default the first failure aborts the fan-out.
func WithFaultIsolation(enabled bool) Option {
	return func(o *options) {
		o.isolate = enabled
	}
}

// WithErrorHandler receives failures of asynchronous deliveries.
// The default handler logs them at error level.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

// WithLoopOptions configures the loop created when no scheduler is supplied.
func WithLoopOptions(opts ...LoopOption) Option {
	return func(o *options) {
		o.loopOptions = append(o.loopOptions, opts...)
	}
}

// WithMiddleware registers middleware on the root topic.
func WithMiddleware(wares ...*Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, wares...)
	}
}

// WithConfig applies an environment-loaded Config.
//
// Example:
//
//	var cfg topic.Config
//	config.MustLoad(&cfg)
//	root := topic.New(topic.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.isolate = cfg.IsolateFaults
		o.logger = logger.New(
			logger.WithLevel(cfg.LogLevel),
			logger.WithFormat(cfg.LogFormat),
			logger.WithAttr(logger.Component("topic")),
			logger.WithContextExtractors(metaExtractor),
		)
		if cfg.ShutdownTimeout > 0 {
			o.loopOptions = append(o.loopOptions, WithLoopShutdownTimeout(cfg.ShutdownTimeout))
		}
	}
}

// metaExtractor adds the delivery metadata found in a context to log records.
func metaExtractor(ctx context.Context) (slog.Attr, bool) {
	meta, ok := MetaFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.Group("delivery",
		logger.Topic(meta.Path),
		logger.Origin(meta.Origin),
		logger.Sequence(meta.Seq),
		logger.Mode(meta.Mode.String()),
	), true
}

func defaultErrorHandler(log *slog.Logger) ErrorHandler {
	return func(ctx context.Context, meta Meta, err error) {
		attrs := []any{
			logger.Origin(meta.Origin),
			logger.Sequence(meta.Seq),
			logger.Error(err),
		}
		var pe *PanicError
		if errors.As(err, &pe) {
			attrs = append(attrs, logger.StackTrace(pe.Stack))
		}
		log.ErrorContext(ctx, "async delivery failed", attrs...)
	}
}
