// Package logging holds the logger shared by all imagecore packages and
// helpers to construct handlers for command line tools.
//
// By default nothing is logged. Call SetLogger to enable output.
package logging

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// nopHandler discards all records. Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by imagecore and its sub-packages.
// Pass nil to restore the default silent behavior. Safe for concurrent use.
//
// Levels used:
//   - [slog.LevelDebug]: per call diagnostics (patch counts, LUT sizes, orientation)
//   - [slog.LevelWarn]: non-fatal issues (unreadable EXIF data)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

type ctxKey struct{}

// AppendCtx returns a copy of ctx carrying attrs, which a handler built by
// New adds to every record logged with that context.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		attrs = append(append([]slog.Attr(nil), existing...), attrs...)
	}
	return context.WithValue(ctx, ctxKey{}, attrs)
}

// ctxHandler adds the attributes stored by AppendCtx to each record.
type ctxHandler struct {
	slog.Handler
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{h.Handler.WithGroup(name)}
}

// New creates a logger writing to w, as JSON when json is true and as
// logfmt style text otherwise.
func New(w io.Writer, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(ctxHandler{h})
}

// RotatingFile returns a writer appending to path that rotates the file
// once it grows beyond maxSizeMB megabytes, keeping maxBackups old files.
func RotatingFile(path string, maxSizeMB, maxBackups int) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}
