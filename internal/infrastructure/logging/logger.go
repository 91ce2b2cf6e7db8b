package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
)

const serviceName = "remoteid-mesh"

// Logger is a slog.Logger carrying the service name and build version on
// every record. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds the process logger from the logging section of config.yaml.
//
// Output defaults to stderr: stdout usually carries the detection stream
// read by the host mapper, and log lines there would corrupt it.
func New(cfg config.LoggingConfig, version string) *Logger {
	w := io.Writer(os.Stderr)
	if strings.EqualFold(cfg.Output, "stdout") {
		w = os.Stdout
	}
	return NewWithWriter(w, cfg, version)
}

// NewWithWriter is New with an explicit destination; cfg.Output is ignored.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{slog.New(h).With("service", serviceName, "version", version)}
}

// parseLevel accepts slog level names (including offsets such as
// "debug+2") and "warning". Anything else is info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// Component tags records with the subsystem that wrote them, e.g.
// "registry" or "mqtt".
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the logger used until configuration has loaded: JSON at info
// level on stderr.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}
