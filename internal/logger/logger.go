package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Init installs a JSON logger writing to stdout at the given level
// ("debug", "info", "warn", "error"; empty means info).
func Init(level string) {
	InitWithWriter(os.Stdout, level)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level string) {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	current.Store(slog.New(h))
	slog.SetDefault(current.Load())
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the process logger.
func L() *slog.Logger {
	return current.Load()
}

func Debug(msg string, fields map[string]any) {
	L().Debug(msg, attrs(fields)...)
}

func Info(msg string, fields map[string]any) {
	L().Info(msg, attrs(fields)...)
}

func Warn(msg string, fields map[string]any) {
	L().Warn(msg, attrs(fields)...)
}

func Error(msg string, fields map[string]any) {
	L().Error(msg, attrs(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	L().Error(msg, append(attrs(fields), slog.Bool("fatal", true))...)
	os.Exit(1)
}

func attrs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
