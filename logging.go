package mqbridge

import (
	"io"
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"
)

// logger is the logging facade used throughout the bridge engine. It is a
// thin alias so that call sites don't repeat the generic instantiation.
type logger = logiface.Logger[*logifaceslog.Event]

// defaultLogger builds a logger writing JSON to stderr at info level, used
// when a Context is constructed without WithLogger.
func defaultLogger() *logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return logifaceslog.L.New(logifaceslog.L.WithSlogHandler(handler))
}

// nopLogger discards everything; used when a Context is constructed with
// WithLogger(nil).
func nopLogger() *logger {
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return logifaceslog.L.New(logifaceslog.L.WithSlogHandler(handler))
}
