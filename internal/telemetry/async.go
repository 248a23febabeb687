package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long cmd/server waits after the listeners stop before shutting down the
// OTel providers, so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so the caller is not blocked. emitter and event may be nil, in which
// case no goroutine starts. The goroutine uses context.Background() with emitTimeout so request
// cancellation does not abort an in-flight emit; errors are logged.
func EmitAsync(emitter EventEmitter, logger *slog.Logger, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil && logger != nil {
			logger.Warn("telemetry: async emit failed", "event", event.Type, "error", err)
		}
	}()
}
