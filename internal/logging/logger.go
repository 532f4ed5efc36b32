// Package logging configures log/slog for the server and the CLI.
//
// Loggers travel in the context: an HTTP request gets its chi request ID,
// and a report run adds its run ID with WithLogger, so every line written
// during a run can be traced back to it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

// Setup configures the global slog logger based on level and format,
// writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json", "pretty" (default: "text")
//
// Use "json" format in production for machine parsing (ELK, CloudWatch, etc.)
// Use "pretty" at a terminal; it colors levels and shortens timestamps.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w without touching the default logger.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case "pretty":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	return slog.New(handler)
}

// parseLevel accepts slog's level names case-insensitively, plus "warning".
// Anything unrecognized is info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying l. FromContext returns l for the
// new context and everything derived from it.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger for ctx: the one stored by WithLogger if
// any, else the default logger tagged with chi's request_id when present.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("rendering report", "format", format)
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return slog.Default().With("request_id", reqID)
	}
	return slog.Default()
}

// WithFields returns FromContext(ctx) with args attached. Pair it with
// WithLogger to make the fields stick for the rest of an operation:
//
//	log := logging.WithFields(ctx, "run_id", runID, "file", name)
//	ctx = logging.WithLogger(ctx, log)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
