package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger keeps the printf-style call sites used across the services on top of zap.
type Logger struct {
	sugar *zap.SugaredLogger
	info  func(template string, args ...interface{})
	warn  func(template string, args ...interface{})
	error func(template string, args ...interface{})
	debug func(template string, args ...interface{})
}

func New() *Logger {
	return NewWithLevel(os.Getenv("LOG_LEVEL"))
}

// NewWithLevel builds a JSON logger writing to stdout. Unknown levels fall back to info.
func NewWithLevel(level string) *Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(lvl),
	)
	return FromZap(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
}

func FromZap(z *zap.Logger) *Logger {
	sugar := z.Sugar()
	return &Logger{
		sugar: sugar,
		info:  sugar.Infof,
		warn:  sugar.Warnf,
		error: sugar.Errorf,
		debug: sugar.Debugf,
	}
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.info(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.warn(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.error(format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.debug(format, v...)
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return FromZap(l.sugar.With(keysAndValues...).Desugar())
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
