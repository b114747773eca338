// Package logging provides structured logging for the CLI.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rescale/dufs-get/internal/constants"
)

// Logger wraps zerolog with console formatting and optional file output.
type Logger struct {
	zlog   zerolog.Logger
	output io.Writer      // console writer
	file   io.WriteCloser // rotating log file, nil when disabled
}

// Options configures NewLogger.
type Options struct {
	// Console receives human-readable log lines. Defaults to os.Stderr so that
	// stdout stays reserved for the interactive session.
	Console io.Writer

	// LogFile, when set, additionally receives JSON log lines through a
	// rotating file writer.
	LogFile string
}

// NewLogger creates a logger from opts.
func NewLogger(opts Options) *Logger {
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}

	l := &Logger{output: out}
	if opts.LogFile != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    constants.LogFileMaxSizeMB,
			MaxBackups: constants.LogFileMaxBackups,
			MaxAge:     constants.LogFileMaxAgeDays,
			Compress:   true,
		}
	}
	l.rebuild()
	return l
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// library callers that do not care about logs.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), output: io.Discard}
}

func (l *Logger) rebuild() {
	var w io.Writer = zerolog.ConsoleWriter{
		Out:        l.output,
		TimeFormat: "15:04:05",
	}
	if l.file != nil {
		w = zerolog.MultiLevelWriter(w, l.file)
	}
	l.zlog = zerolog.New(w).With().Timestamp().Logger()
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	// Default to warnings: the interactive session prints its own messages,
	// info logs only show up with --verbose.
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}
