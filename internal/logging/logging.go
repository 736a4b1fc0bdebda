// Package logging builds the per-command zerolog logger: a console writer
// on stderr and an optional rotating JSON log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level applies to the log file. Defaults to info.
	Level string
	// Verbose lowers the console level from warn to debug.
	Verbose bool
	NoColor bool
	// File enables the rotating JSON log when non-empty.
	File string
	// Console defaults to os.Stderr.
	Console io.Writer
	// RunID tags every event. A random one is generated when empty.
	RunID string
}

// Logger bundles the logger with the resources behind it.
type Logger struct {
	zerolog.Logger
	RunID string
	file  *lumberjack.Logger
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds a Logger.
func New(opts Options) (*Logger, error) {
	fileLevel := zerolog.InfoLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		fileLevel = lvl
	}

	consoleLevel := zerolog.WarnLevel
	if opts.Verbose {
		consoleLevel = zerolog.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
				Out:        console,
				NoColor:    opts.NoColor,
				TimeFormat: time.Kitchen,
			}},
			Level: consoleLevel,
		},
	}
	minLevel := consoleLevel

	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: file},
			Level:  fileLevel,
		})
		if fileLevel < minLevel {
			minLevel = fileLevel
		}
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(minLevel).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return &Logger{Logger: logger, RunID: runID, file: file}, nil
}
