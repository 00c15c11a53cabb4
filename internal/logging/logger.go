// Package logging builds the calculator's zap logger and recovers panics
// raised by operation plugins.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Dir is the log directory; the file inside it is FileName.
	Dir string
	// FileName defaults to calculator.log.
	FileName string
	// Level is debug, info, warn, warning, error or critical.
	Level string
	// Session tags every entry; a new ULID is used when empty.
	Session string
}

// ParseLevel maps a configured level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "critical":
		return zapcore.DPanicLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// NewSessionID returns a sortable identifier for one process run.
func NewSessionID() string {
	return ulid.Make().String()
}

// New builds a JSON logger writing to opts.Dir. When the file cannot be
// opened it returns a stderr logger limited to warnings together with the
// error; callers may keep using the returned logger.
func New(opts Options) (*zap.Logger, error) {
	if opts.FileName == "" {
		opts.FileName = "calculator.log"
	}
	if opts.Session == "" {
		opts.Session = NewSessionID()
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return fallback(opts.Session), err
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fallback(opts.Session), fmt.Errorf("create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.OutputPaths = []string{filepath.Join(opts.Dir, opts.FileName)}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{"session": opts.Session}

	logger, err := cfg.Build()
	if err != nil {
		return fallback(opts.Session), fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func fallback(session string) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.WarnLevel)
	return zap.New(core).With(zap.String("session", session))
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Component names a subsystem on a logger.
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("component", name))
}
