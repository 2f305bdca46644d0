package topic

import (
	"log/slog"
	"time"
)

// Config holds the environment-driven settings of a topic tree.
// Load it with config.Load and apply it with WithConfig.
type Config struct {
	IsolateFaults   bool          `env:"TOPIC_ISOLATE_FAULTS" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"TOPIC_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel        slog.Level    `env:"TOPIC_LOG_LEVEL" envDefault:"INFO"`
	LogFormat       string        `env:"TOPIC_LOG_FORMAT" envDefault:"text"`
}
