// Package zlog adapts zerolog to params.Logger.
package zlog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	params "github.com/goliatone/go-params"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written. Successful evaluations log at
	// debug, decode fallbacks at warn and adapter failures at error.
	Level zerolog.Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// Pretty enables human-readable console output.
	Pretty bool
}

// New builds a zerolog.Logger from cfg.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	return zerolog.New(output).Level(cfg.Level).With().Timestamp().Logger()
}

// ParseLevel parses a level name case-insensitively, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger writes params log events to a zerolog.Logger.
type Logger struct {
	log zerolog.Logger
}

var _ params.Logger = Logger{}

// Wrap returns a params.Logger backed by log.
func Wrap(log zerolog.Logger) Logger {
	return Logger{log: log}
}

// Log implements params.Logger.
func (l Logger) Log(event params.LogEvent) {
	entry := l.log.WithLevel(levelFor(event))
	if event.Source != "" {
		entry = entry.Str("source", event.Source)
	}
	if event.Engine != "" {
		entry = entry.Str("engine", event.Engine)
	}
	if event.Expr != "" {
		entry = entry.Str("expr", event.Expr)
	}
	if event.Duration > 0 {
		entry = entry.Dur("duration", event.Duration)
	}
	if event.Err != nil {
		entry = entry.Err(event.Err)
	}
	entry.Msg("params " + event.Op)
}

func levelFor(event params.LogEvent) zerolog.Level {
	switch {
	case event.Err == nil:
		return zerolog.DebugLevel
	case event.Op == "decode":
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
