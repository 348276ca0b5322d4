package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type ctxKey struct{}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Init настраивает глобальный логгер: уровень и формат (text/json)
func Init(level, format string) {
	InitWriter(os.Stdout, level, format)
}

// InitWriter - то же самое, но с произвольным выводом (тесты)
func InitWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Get возвращает глобальный логгер
func Get() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		Init("info", "text")
		return Get()
	}
	return l
}

// With возвращает логгер с атрибутами
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// Component - логгер подсистемы
func Component(name string) *slog.Logger {
	return With("component", name)
}

// IntoContext кладет логгер в контекст
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext достает логгер из контекста или глобальный
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return Get()
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Fatal пишет ошибку и завершает процесс, только для main
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}
