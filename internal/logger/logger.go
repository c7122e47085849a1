package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// VerboseChecker interface for checking verbose state
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger provides structured logging with verbose support.
// Debug and Info are dropped unless the checker reports verbose.
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	zl             *zap.Logger
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// New creates a logger writing console-encoded lines to stderr
func New(component string, verboseChecker VerboseChecker) *Logger {
	return NewWithWriter(component, verboseChecker, os.Stderr)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(component string, verboseChecker VerboseChecker, w io.Writer) *Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)
	return NewFromCore(component, verboseChecker, core)
}

// NewFromCore wraps an existing zap core, mostly for tests using zaptest/observer
func NewFromCore(component string, verboseChecker VerboseChecker, core zapcore.Core) *Logger {
	if component == "" {
		component = "main"
	}
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		zl:             zap.New(core).Named(component),
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{component: "nop", zl: zap.NewNop()}
}

// OpenFile opens path for appending, creating it if needed
func OpenFile(path string) (*os.File, error) {
	// #nosec G304 - log path comes from flags or config
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

// WithComponent creates a logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: l.verboseChecker,
		zl:             l.zl.Named(component),
	}
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// VerboseFunc adapts a plain function to VerboseChecker
type VerboseFunc func() bool

// IsVerbose reports the function's result
func (f VerboseFunc) IsVerbose() bool {
	return f != nil && f()
}

func (l *Logger) verbose() bool {
	return l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (only when verbose=true)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.zl.Debug(fmt.Sprintf(msg, args...))
	}
}

// Info logs informational messages (only when verbose=true)
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.zl.Info(fmt.Sprintf(msg, args...))
	}
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn(fmt.Sprintf(msg, args...))
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error(fmt.Sprintf(msg, args...))
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.zl.Debug(fmt.Sprintf(msg, args...), toZap(fields)...)
	}
}

// InfoWithFields logs info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.zl.Info(fmt.Sprintf(msg, args...), toZap(fields)...)
	}
}

// WarnWithFields logs warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.zl.Warn(fmt.Sprintf(msg, args...), toZap(fields)...)
}

// ErrorWithFields logs error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields []Field, args ...interface{}) {
	l.zl.Error(fmt.Sprintf(msg, args...), toZap(fields)...)
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Helper functions for common field types
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}
