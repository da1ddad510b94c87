package logger

import (
	"context"
	"log/slog"
)

// ErrorReporter receives errors that are handled locally but must not go
// unnoticed. Report must not block and must not panic.
type ErrorReporter interface {
	Report(ctx context.Context, err error, attrs ...slog.Attr)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(ctx context.Context, err error, attrs ...slog.Attr)

func (f ReporterFunc) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	f(ctx, err, attrs...)
}

// LogReporter reports errors by logging them at error level.
type LogReporter struct {
	log *slog.Logger
}

// NewErrorReporter returns a reporter writing to log. A nil logger drops reports.
func NewErrorReporter(log *slog.Logger) *LogReporter {
	if log == nil {
		log = Discard()
	}
	return &LogReporter{log: log}
}

func (r *LogReporter) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	if err == nil {
		return
	}
	r.log.LogAttrs(ctx, slog.LevelError, "error reported", append(attrs, Error(err))...)
}
