package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/config"
)

// SlogLogger adapts log/slog to the context logger interface
type SlogLogger struct {
	logger *slog.Logger
}

var _ common.Logger = (*SlogLogger)(nil)

// NewLogger builds a logger from the logging configuration
func NewLogger(cfg *config.LoggingConfig) *SlogLogger {
	var out io.Writer = os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}
	return NewLoggerWithWriter(cfg, out)
}

// NewLoggerWithWriter builds a logger writing to out
func NewLoggerWithWriter(cfg *config.LoggingConfig, out io.Writer) *SlogLogger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.IncludeCaller,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

// Log writes one record. Metadata keys become attributes.
func (l *SlogLogger) Log(level, message string, metadata map[string]interface{}) {
	attrs := make([]slog.Attr, 0, len(metadata))
	for k, v := range metadata {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.LogAttrs(context.Background(), parseLevel(level), message, attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
