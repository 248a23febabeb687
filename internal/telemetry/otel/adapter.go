package otel

import (
	"context"
	"sort"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"resume-analyzer/backend/internal/telemetry"
)

// LoggerName is the OTel logger scope auth events are emitted under.
const LoggerName = "resume-analyzer.auth"

type recordLogger interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via provider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(LoggerName)}
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger. Used by tests to capture records.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the event to an OTel log record with event.Type as the body. Emails and IPs are
// attributes; codes and secrets never reach an Event.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetSeverity(otellog.SeverityInfo)
	if event.Outcome != "" && event.Outcome != telemetry.OutcomeSuccess {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	rec.SetBody(otellog.StringValue(event.Type))
	rec.AddAttributes(otellog.String("event_type", event.Type))
	if event.Email != "" {
		rec.AddAttributes(otellog.String("email", event.Email))
	}
	if event.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", event.Outcome))
	}
	if event.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", event.IP))
	}
	keys := make([]string, 0, len(event.Attrs))
	for k := range event.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.AddAttributes(otellog.String(k, event.Attrs[k]))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
