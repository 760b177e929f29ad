// Package logger provides a zap-based application logger.
package logger

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity a Logger writes.
type Level int8

// Supported levels.
const (
	LevelDebug = Level(zapcore.DebugLevel)
	LevelInfo  = Level(zapcore.InfoLevel)
	LevelWarn  = Level(zapcore.WarnLevel)
	LevelError = Level(zapcore.ErrorLevel)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return LevelInfo
	}
	return Level(lvl)
}

// TraceIDFn extracts the trace id recorded with every log entry.
type TraceIDFn func(ctx context.Context) string

// Logger writes structured JSON records tagged with the service name and
// the trace id of the calling context.
type Logger struct {
	sugar     *zap.SugaredLogger
	traceIDFn TraceIDFn
}

// New constructs a Logger writing to w.
func New(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFn) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.Level(minLevel))
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", serviceName))

	return &Logger{sugar: base.Sugar(), traceIDFn: traceIDFn}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, l.fields(ctx, args)...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, l.fields(ctx, args)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, l.fields(ctx, args)...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, l.fields(ctx, args)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) fields(ctx context.Context, args []any) []any {
	if l.traceIDFn == nil {
		return args
	}
	if id := l.traceIDFn(ctx); id != "" {
		return append([]any{"trace_id", id}, args...)
	}
	return args
}
