package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the process logger on first use. It writes console-encoded
// lines to stderr; LOG_LEVEL, when set, seeds the minimum level.
func initLogger() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return logger
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zapcore.ParseLevel(lvl); err == nil {
			level.SetLevel(parsed)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
	logger = zap.New(core, zap.AddCallerSkip(1)).Sugar()
	return logger
}

// Use replaces the process logger. Tests pass an observer-backed logger here.
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// SetLevel changes the minimum level of the default logger. Unknown values
// are ignored.
func SetLevel(l Level) {
	if parsed, err := zapcore.ParseLevel(strings.ToLower(string(l))); err == nil {
		level.SetLevel(parsed)
	}
}

func Debug(msg string, kv ...any) {
	initLogger().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger().Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger().Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	initLogger().Errorw(msg, extended...)
}

// Logger is a child logger carrying fixed key-value context, e.g. a request id.
type Logger struct {
	s *zap.SugaredLogger
}

// With returns a Logger that prefixes every entry with kv.
func With(kv ...any) Logger {
	return Logger{s: initLogger().With(kv...)}
}

func (l Logger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l Logger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l Logger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }

func (l Logger) Error(msg string, err error, kv ...any) {
	l.s.Errorw(msg, append([]any{"err", err}, kv...)...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}
