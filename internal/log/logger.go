package log

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// base is the logger built by Structured or Console, current the one actually used
	base, current *zap.Logger

	// level is shared by the structured and the console loggers
	level = zap.NewAtomicLevelAt(zap.DebugLevel)
)

type contextKey int

const contextKeyFields contextKey = iota

func init() {
	if lvl := os.Getenv("LOGLEVEL"); lvl != "" {
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			level.SetLevel(zap.DebugLevel)
		}
	}
	Structured()
}

func setLogger(l *zap.Logger) { current = l }
func resetLogger()            { current = base }

func build(cfg zap.Config, enc zapcore.EncoderConfig) {
	enc.MessageKey = "message"
	enc.LevelKey = "severity"
	enc.TimeKey = "timestamp"
	enc.StacktraceKey = ""
	cfg.EncoderConfig = enc
	cfg.Level = level
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("log: %v", err))
	}
	base, current = l, l
}

// Structured sets output to be JSON encoded
func Structured() {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	build(zap.NewProductionConfig(), enc)
}

// Console sets output to be human-readable
func Console() {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000")
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	build(zap.NewDevelopmentConfig(), enc)
}

// SetLevel changes the level of the loggers ("debug", "info", "warn", "error")
func SetLevel(lvl string) error {
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		return fmt.Errorf("SetLevel: %w", err)
	}
	return nil
}

func fields(ctx context.Context) []zap.Field {
	flds, _ := ctx.Value(contextKeyFields).([]zap.Field)
	return flds
}

// Logger returns a logger that prints the fields previously added to ctx
func Logger(ctx context.Context) *zap.Logger {
	if flds := fields(ctx); len(flds) > 0 {
		return current.With(flds...)
	}
	return current
}

// With adds a key=value field to the returned context
func With(ctx context.Context, key string, value interface{}) context.Context {
	return WithFields(ctx, zap.Any(key, value))
}

// WithFields adds fields to the returned context.
// Sibling contexts never share their fields.
func WithFields(ctx context.Context, flds ...zapcore.Field) context.Context {
	return context.WithValue(ctx, contextKeyFields, concat(fields(ctx), flds))
}

// CopyContext returns dst with the logging fields of ctx prepended
func CopyContext(ctx context.Context, dst context.Context) context.Context {
	src := fields(ctx)
	if len(src) == 0 {
		return dst
	}
	return context.WithValue(dst, contextKeyFields, concat(src, fields(dst)))
}

func concat(a, b []zap.Field) []zap.Field {
	res := make([]zap.Field, 0, len(a)+len(b))
	return append(append(res, a...), b...)
}
