package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/zcc/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// levelFor maps the -v count to a zerolog level: warnings by default, then
// info, debug and trace.
func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// SetupLogger configures the global logger for one zcc invocation.
// Diagnostics go to stderr and are appended to zcc.log under the XDG
// state dir; user-facing output goes through pkg/ui instead.
func SetupLogger(verbosity int) {
	zerolog.SetGlobalLevel(levelFor(verbosity))

	// Human readable on the terminal, NO_COLOR respected
	_, noColor := os.LookupEnv("NO_COLOR")
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}}

	// JSON lines in the log file, when it can be opened
	logFile := getLogFilePath()
	fileHandle, fileErr := setupLogFile(logFile)
	if fileErr == nil {
		writers = append(writers, fileHandle)
	}

	logger := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if verbosity >= 2 {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()

	// Reported only now so the warning reaches the console writer
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logFile).Msg("Failed to create log file, logging to console only")
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// getLogFilePath returns the path to the log file
// It respects XDG_STATE_HOME if set, otherwise uses ~/.local/state/zcc/
func getLogFilePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "zcc.log"
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "zcc", "zcc.log")
}

// setupLogFile creates the log file and its parent directories
func setupLogFile(logPath string) (*os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

// zerologLogger adapts a zerolog logger to types.Logger. It is the default
// message sink for library callers that do not render to a terminal.
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a types.Logger writing through the global zerolog
// logger tagged with component.
func NewZerologLogger(component string) types.Logger {
	return &zerologLogger{logger: GetLogger(component)}
}

func (z *zerologLogger) Info(format string, args ...interface{}) {
	z.logger.Info().Msgf(format, args...)
}

func (z *zerologLogger) Success(format string, args ...interface{}) {
	z.logger.Info().Str("status", "success").Msgf(format, args...)
}

func (z *zerologLogger) Warn(format string, args ...interface{}) {
	z.logger.Warn().Msgf(format, args...)
}

func (z *zerologLogger) Error(format string, args ...interface{}) {
	z.logger.Error().Msgf(format, args...)
}

func (z *zerologLogger) Debug(format string, args ...interface{}) {
	z.logger.Debug().Msgf(format, args...)
}
