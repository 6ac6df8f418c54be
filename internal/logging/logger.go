// Package logging provides centralized zerolog-based logging for obsforge.
//
// Call Init once at process startup, then use the package-level helpers
// (Info, Error, ...) or Ctx(ctx) to obtain a logger carrying whatever
// correlation/run/schedule IDs were attached to the context.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string
	// Format is the output format: json or console.
	Format string
	// Caller includes caller file and line number in logs.
	Caller bool
	// Output is the writer for log output. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Caller: false, Output: os.Stderr}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // ensures a usable logger exists before an explicit Init call
func init() {
	initLogger(DefaultConfig())
}

// Init (re)configures the global logger. Safe to call multiple times.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.Kitchen}
	}

	builder := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}
	log = builder.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the current global logger instance.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Trace() *zerolog.Event { return Logger().Trace() }
func Debug() *zerolog.Event { return Logger().Debug() }
func Info() *zerolog.Event  { return Logger().Info() }
func Warn() *zerolog.Event  { return Logger().Warn() }
func Error() *zerolog.Event { return Logger().Error() }
func Fatal() *zerolog.Event { return Logger().Fatal() }
