package events

import (
	"log/slog"

	"tandachain/core/types"
)

// payloadCarrier is implemented by the per-engine event wrappers, which all
// expose the underlying attribute record.
type payloadCarrier interface {
	Event() *types.Event
}

// LogEmitter writes every emitted event to a structured logger. It backs the
// daemon's default event sink; richer subscribers can replace it.
type LogEmitter struct {
	log *slog.Logger
}

// NewLogEmitter returns an emitter over the given logger, falling back to the
// process default when nil.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{log: logger}
}

// Emit implements the Emitter interface.
func (l *LogEmitter) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	args := []any{"event", evt.EventType()}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, key, value)
			}
		}
	}
	l.log.Info("state event", args...)
}
