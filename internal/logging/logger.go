// Package logging provides the structured logging interface used across
// the reconstruction engine: phase transitions, prime promotions, probe
// dispatch counts, and checkpoint writes all go through here rather than
// the standard log package, so output can be switched between a
// human-readable console and newline-delimited JSON without touching
// call sites.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used across the engine.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Debug(msg string, fields ...Field)
}

// Field is a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}
func Err(err error) Field { return Field{Key: "error", Value: err} }

// ZerologAdapter adapts a zerolog.Logger to the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an already-configured zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Setup builds the process logger per Quiet/NoColor/JSON preferences: a
// console writer (colorized unless noColor is set) by default, or raw JSON
// lines when jsonOutput is true. Quiet raises the level to warnings.
func Setup(w io.Writer, quiet, noColor, jsonOutput bool) *ZerologAdapter {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}

	var out io.Writer = w
	if !jsonOutput {
		out = zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return NewZerologAdapter(logger)
}

func (z *ZerologAdapter) applyFields(event *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event = event.Str(f.Key, v)
		case int:
			event = event.Int(f.Key, v)
		case int64:
			event = event.Int64(f.Key, v)
		case uint64:
			event = event.Uint64(f.Key, v)
		case float64:
			event = event.Float64(f.Key, v)
		case error:
			event = event.AnErr(f.Key, v)
		case bool:
			event = event.Bool(f.Key, v)
		default:
			event = event.Interface(f.Key, v)
		}
	}
	return event
}

func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	z.applyFields(z.logger.Info(), fields).Msg(msg)
}

func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	z.applyFields(z.logger.Error().Err(err), fields).Msg(msg)
}

func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	z.applyFields(z.logger.Debug(), fields).Msg(msg)
}

// NewDiscard returns a Logger that drops everything, for tests that
// exercise components taking a Logger without asserting on output.
func NewDiscard() *ZerologAdapter {
	return NewZerologAdapter(zerolog.New(io.Discard))
}

// Raw exposes the underlying zerolog.Logger, for collaborators (like
// reconstruct.Reconstructor) that take a zerolog.Logger directly instead
// of the Logger interface.
func (z *ZerologAdapter) Raw() zerolog.Logger { return z.logger }

var _ Logger = (*ZerologAdapter)(nil)
