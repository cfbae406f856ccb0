// Package logger provides a structured logger built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Level is the severity of a log record.
type Level = slog.Level

// Log levels. LevelSuccess sits between info and warn so that
// successful outcomes stand out from plain progress messages.
const (
	LevelDebug   Level = slog.LevelDebug
	LevelInfo    Level = slog.LevelInfo
	LevelSuccess Level = slog.Level(2)
	LevelWarn    Level = slog.LevelWarn
	LevelError   Level = slog.LevelError
)

// LoggerInterface is the logging contract used across the application.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Success(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// Record is the data handed to an EventFunc.
type Record struct {
	Time       time.Time
	Level      Level
	Message    string
	Attributes map[string]any
}

// EventFunc is called for every record at the matching level.
type EventFunc func(ctx context.Context, r Record)

// Events hooks log records by level. Nil funcs are ignored.
type Events struct {
	Debug   EventFunc
	Info    EventFunc
	Success EventFunc
	Warn    EventFunc
	Error   EventFunc
}

// Logger writes structured records and fires optional events.
type Logger struct {
	handler slog.Handler
	events  *Events
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing text records to w.
func New(w io.Writer, minLevel Level, serviceName string, events *Events) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: minLevel <= LevelDebug,
		Level:     minLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelString(lvl))
				}
			}
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					a.Value = slog.StringValue(shortSource(src))
				}
			}
			return a
		},
	})

	var h slog.Handler = handler
	if serviceName != "" {
		h = handler.WithAttrs([]slog.Attr{slog.String("service", serviceName)})
	}

	return &Logger{
		handler: h,
		events:  events,
	}
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger {
	return New(io.Discard, LevelError, "", nil)
}

// LevelString renders a level the way the text handler prints it.
func LevelString(l Level) string {
	switch {
	case l == LevelSuccess:
		return "SUCCESS"
	case l < LevelInfo:
		return "DEBUG"
	case l < LevelWarn:
		return "INFO"
	case l < LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, 3, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, 3, msg, args...)
}

// Success logs a completed operation.
func (l *Logger) Success(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelSuccess, 3, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, 3, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, 3, msg, args...)
}

// Debugc logs at debug level, skipping caller extra frames for the source attribute.
func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelDebug, 3+caller, msg, args...)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelInfo, 3+caller, msg, args...)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelWarn, 3+caller, msg, args...)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelError, 3+caller, msg, args...)
}

func (l *Logger) write(ctx context.Context, level Level, skip int, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}

	enabled := l.handler.Enabled(ctx, level)
	hook := l.eventFor(level)
	if !enabled && hook == nil {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if enabled {
		_ = l.handler.Handle(ctx, r)
	}

	if hook != nil {
		attrs := make(map[string]any, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.Resolve().Any()
			return true
		})
		hook(ctx, Record{Time: r.Time, Level: level, Message: msg, Attributes: attrs})
	}
}

func (l *Logger) eventFor(level Level) EventFunc {
	if l.events == nil {
		return nil
	}
	switch level {
	case LevelDebug:
		return l.events.Debug
	case LevelInfo:
		return l.events.Info
	case LevelSuccess:
		return l.events.Success
	case LevelWarn:
		return l.events.Warn
	case LevelError:
		return l.events.Error
	}
	return nil
}

func shortSource(src *slog.Source) string {
	file := src.File
	short := file
	slashes := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			slashes++
			if slashes == 2 {
				short = file[i+1:]
				break
			}
		}
	}
	return short + ":" + strconv.Itoa(src.Line)
}
