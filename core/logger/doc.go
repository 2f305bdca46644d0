// Package logger provides structured logging utilities built on Go's standard slog package.
// It offers a small option-based constructor, context-aware attribute extraction and a set
// of attribute helpers used across the topic engine.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/topictree/core/logger"
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(logger.Component("topics")),
//	)
//
//	log.Info("payload delivered",
//		logger.Topic("orders.created"),
//		logger.Sequence(42),
//		logger.Mode("async"),
//	)
//
// # Context-Aware Logging
//
// Extractors run for every record logged through a *Context method and may add one
// attribute each:
//
//	func requestID(ctx context.Context) (slog.Attr, bool) {
//		id, ok := ctx.Value(requestIDKey{}).(string)
//		return slog.String("request_id", id), ok
//	}
//
//	log := logger.New(logger.WithContextExtractors(requestID))
//
// # Attribute Helpers
//
// Helpers return the empty slog.Attr when the value is missing, so they can be passed
// unconditionally:
//
//	log.Error("delivery failed", logger.Error(err), logger.Subscriber(name))
//
// # Disabling Output
//
// Discard returns a logger that writes nothing. It is the default for every component
// that accepts a logger option.
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
package logger
