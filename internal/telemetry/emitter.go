package telemetry

import (
	"context"
	"time"
)

// Event is a single auth event (signup, login, otp_verify, ...) exported as an OTel log record.
type Event struct {
	Type    string
	Email   string
	Outcome string
	IP      string
	Attrs   map[string]string
	At      time.Time
}

// EventEmitter emits auth events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
