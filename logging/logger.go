package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface for Parley. Args are
// alternating key/value pairs as in slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// Config configures construction of a ConversationLogger.
type Config struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// ConversationLogger wraps slog.Logger adding conversation-scoped context
// cloning helpers and domain convenience methods. It is cheap to copy via
// With* methods.
type ConversationLogger struct {
	logger         *slog.Logger
	level          LogLevel
	component      string
	conversationID string
}

// NewLogger builds a ConversationLogger from a config (or defaults if nil).
func NewLogger(cfg *Config) *ConversationLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &ConversationLogger{logger: slog.New(handler), level: cfg.Level}
}

func (l *ConversationLogger) clone() *ConversationLogger {
	nl := *l
	return &nl
}

// WithComponent sets the logical component (orchestrator, limiter, sink, ...).
func (l *ConversationLogger) WithComponent(c string) *ConversationLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithConversation attaches the conversation identifier to every entry.
func (l *ConversationLogger) WithConversation(id string) *ConversationLogger {
	nl := l.clone()
	nl.conversationID = id
	return nl
}

func (l *ConversationLogger) attrs(extra ...any) []any {
	args := make([]any, 0, len(extra)+4)
	if l.component != "" {
		args = append(args, "component", l.component)
	}
	if l.conversationID != "" {
		args = append(args, "conversation_id", l.conversationID)
	}
	return append(args, extra...)
}

// Debug logs at debug level.
func (l *ConversationLogger) Debug(msg string, args ...any) {
	if l.level > LogLevelDebug {
		return
	}
	l.logger.Debug(msg, l.attrs(args...)...)
}

// Info logs at info level.
func (l *ConversationLogger) Info(msg string, args ...any) {
	if l.level > LogLevelInfo {
		return
	}
	l.logger.Info(msg, l.attrs(args...)...)
}

// Warn logs at warn level.
func (l *ConversationLogger) Warn(msg string, args ...any) {
	if l.level > LogLevelWarn {
		return
	}
	l.logger.Warn(msg, l.attrs(args...)...)
}

// Error logs at error level.
func (l *ConversationLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.attrs(args...)...)
}

// LogModelCall records provider call latency, token usage and success.
func (l *ConversationLogger) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	args := l.attrs("model", model, "token_count", tokens, "duration", dur)
	if err != nil {
		args = append(args, "error", err.Error())
		l.logger.Error("Model call failed", args...)
		return
	}
	l.logger.Info("Model call completed", args...)
}

// LogTurn records a completed turn with its convergence score.
func (l *ConversationLogger) LogTurn(turn int, score float64, dur time.Duration) {
	l.logger.Info("Turn completed", l.attrs("turn", turn, "convergence", score, "duration", dur)...)
}

// LogCheckpoint records a checkpoint write outcome.
func (l *ConversationLogger) LogCheckpoint(locator string, turn int, err error) {
	args := l.attrs("locator", locator, "turn", turn)
	if err != nil {
		args = append(args, "error", err.Error())
		l.logger.Warn("Checkpoint write failed", args...)
		return
	}
	l.logger.Info("Checkpoint written", args...)
}

// LogWithContext logs at info level passing through a context for handlers
// that extract trace attributes from it.
func (l *ConversationLogger) LogWithContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, l.attrs(args...)...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
