package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Records are routed through
// TraceHandler so trace/span ids and the acting user land on every line
// that carries a request context.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	json := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	return slog.New(NewTraceHandler(json))
}
