// Package logger defines the small leveled logging interface the engine
// components log through, plus adapters for zerolog and log/slog.
package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger accepts a message plus alternating key/value pairs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// ZerologAdapter implements Logger on top of a zerolog.Logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// New builds the default zerolog-backed Logger writing to w.
func New(w io.Writer) *ZerologAdapter {
	return &ZerologAdapter{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(l zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: l}
}

func (z *ZerologAdapter) Error(msg string, args ...any) {
	z.logger.Error().Fields(kv(args)).Msg(msg)
}

func (z *ZerologAdapter) Warn(msg string, args ...any) {
	z.logger.Warn().Fields(kv(args)).Msg(msg)
}

func (z *ZerologAdapter) Info(msg string, args ...any) {
	z.logger.Info().Fields(kv(args)).Msg(msg)
}

func (z *ZerologAdapter) Debug(msg string, args ...any) {
	z.logger.Debug().Fields(kv(args)).Msg(msg)
}

// kv folds alternating key/value args into the map form zerolog accepts.
// A trailing key without a value is logged with a nil value rather than
// dropped, so mistakes stay visible.
func kv(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	fields := make(map[string]any, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if i+1 < len(args) {
			fields[key] = args[i+1]
		} else {
			fields[key] = nil
		}
	}
	return fields
}

// Nop discards everything. Useful as a default when no logger is injected.
type Nop struct{}

func (Nop) Error(string, ...any) {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Info(string, ...any)  {}
func (Nop) Debug(string, ...any) {}
