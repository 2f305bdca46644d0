package logger

import (
	"log/slog"
	"time"
)

// Helpers below return the zero slog.Attr when there is nothing to log.
// slog drops zero attributes, so callers can pass them unconditionally:
//
//	log.Error("delivery failed", logger.Error(err), logger.Subscriber(name))

// Group nests attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Failures
// ============================================================================

// Error logs err under "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Panic logs a value returned by recover under "panic".
func Panic(v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any("panic", v)
}

// StackTrace logs a stack captured with runtime/debug.Stack.
func StackTrace(stack []byte) slog.Attr {
	if len(stack) == 0 {
		return slog.Attr{}
	}
	return slog.String("stack", string(stack))
}

// ============================================================================
// Timing
// ============================================================================

// Duration logs how long a single call took.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed logs the time passed since start, typically a batch or a turn.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ============================================================================
// Topics
// ============================================================================

func rootName(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// Topic logs the path of the topic doing the work. The root is "<root>".
func Topic(path string) slog.Attr {
	return slog.String("topic", rootName(path))
}

// Origin logs the path a payload was published on.
func Origin(path string) slog.Attr {
	return slog.String("origin", rootName(path))
}

// Sequence logs the per-topic publish number. Zero means unstamped.
func Sequence(seq uint64) slog.Attr {
	if seq == 0 {
		return slog.Attr{}
	}
	return slog.Uint64("seq", seq)
}

// Mode logs the delivery mode, "sync" or "async".
func Mode(mode string) slog.Attr {
	return slog.String("mode", mode)
}

// Subscriber logs the name of a subscriber.
func Subscriber(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("subscriber", name)
}

// Middleware logs the name of a middleware.
func Middleware(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("middleware", name)
}

// ============================================================================
// Misc
// ============================================================================

// Component tags records with the part of the system that wrote them.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count logs an integer under key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
