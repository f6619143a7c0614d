package jonoondb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that knows the database and collection it speaks
// for. Operation outcomes are logged at debug level and failures at error
// level.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NewTextLogger(slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger writes JSON records at or above level to stderr.
func NewJSONLogger(level slog.Level) *Logger { return newLogger(os.Stderr, "json", level) }

// NewTextLogger writes key=value records at or above level to stderr.
func NewTextLogger(level slog.Level) *Logger { return newLogger(os.Stderr, "text", level) }

// NoopLogger discards everything.
func NoopLogger() *Logger { return &Logger{Logger: slog.New(slog.DiscardHandler)} }

// newLogger expects format to be "json" or "text"; anything else is text.
func newLogger(w io.Writer, format string, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return &Logger{Logger: slog.New(slog.NewJSONHandler(w, opts))}
	}
	return &Logger{Logger: slog.New(slog.NewTextHandler(w, opts))}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidArgument, s)
	}
	return level, nil
}

func (l *Logger) WithDatabase(name string) *Logger {
	return &Logger{Logger: l.With("database", name)}
}

func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{Logger: l.With("collection", name)}
}

// outcome logs op as completed at okLevel, or as failed with err.
func (l *Logger) outcome(ctx context.Context, okLevel slog.Level, op string, err error, attrs ...any) {
	if err != nil {
		l.Log(ctx, slog.LevelError, op+" failed", append(attrs, "error", err)...)
		return
	}
	l.Log(ctx, okLevel, op+" completed", attrs...)
}

// LogInsert records a single insert (count 1) or a batch starting at first.
func (l *Logger) LogInsert(ctx context.Context, first uint64, count int, err error) {
	if err != nil {
		l.outcome(ctx, slog.LevelDebug, "insert", err, "count", count)
		return
	}
	l.outcome(ctx, slog.LevelDebug, "insert", nil, "position", first, "count", count)
}

func (l *Logger) LogFind(ctx context.Context, constraints int, matches uint64, err error) {
	if err != nil {
		l.outcome(ctx, slog.LevelDebug, "find", err, "constraints", constraints)
		return
	}
	l.outcome(ctx, slog.LevelDebug, "find", nil, "constraints", constraints, "matches", matches)
}

func (l *Logger) LogDelete(ctx context.Context, position uint64, err error) {
	l.outcome(ctx, slog.LevelDebug, "delete", err, "position", position)
}

// LogRecovery reports the index rebuild that runs when a collection opens.
// documents counts the locators replayed so far when err is set.
func (l *Logger) LogRecovery(ctx context.Context, documents, deleted uint64, err error) {
	if err != nil {
		l.outcome(ctx, slog.LevelInfo, "recovery", err, "documents_replayed", documents)
		return
	}
	l.outcome(ctx, slog.LevelInfo, "recovery", nil, "documents", documents, "deleted", deleted)
}
