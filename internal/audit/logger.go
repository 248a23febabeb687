// Package audit records auth events best-effort: persisted to the audit repository and
// emitted as telemetry events. Failures are logged and never reach the caller.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/backend/internal/audit/domain"
	auditrepo "resume-analyzer/backend/internal/audit/repository"
	"resume-analyzer/backend/internal/logging"
	"resume-analyzer/backend/internal/telemetry"
)

const defaultStoreTimeout = 5 * time.Second

// IPExtractor returns the client IP for the request in ctx.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. Used by the auth service on every outcome.
type AuditLogger interface {
	LogEvent(ctx context.Context, email, action string, err error)
}

// Logger implements AuditLogger using the audit repository and an optional telemetry emitter.
type Logger struct {
	repo         auditrepo.Repository
	emitter      telemetry.EventEmitter
	ipExtractor  IPExtractor
	logger       *slog.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithEmitter also sends every event to emitter, asynchronously.
func WithEmitter(emitter telemetry.EventEmitter) Option {
	return func(l *Logger) { l.emitter = emitter }
}

// WithIPExtractor replaces ClientIP as the source of the recorded IP.
func WithIPExtractor(f IPExtractor) Option {
	return func(l *Logger) { l.ipExtractor = f }
}

// WithStoreTimeout bounds each repository write.
func WithStoreTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.storeTimeout = d
		}
	}
}

// NewLogger returns a Logger that persists to repo. repo may be nil, in which case events are only emitted.
func NewLogger(repo auditrepo.Repository, logger *slog.Logger, opts ...Option) *Logger {
	if logger == nil {
		logger = logging.Discard()
	}
	l := &Logger{
		repo:         repo,
		ipExtractor:  ClientIP,
		logger:       logger,
		storeTimeout: defaultStoreTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogEvent records action for email with the outcome derived from err (nil is success).
// The write survives cancellation of ctx but is bounded by the store timeout.
func (l *Logger) LogEvent(ctx context.Context, email, action string, err error) {
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Email:     email,
		Action:    action,
		Outcome:   OutcomeOf(err),
		IP:        ip,
		CreatedAt: l.now(),
	}

	telemetry.EmitAsync(l.emitter, l.logger, &telemetry.Event{
		Type:    action,
		Email:   email,
		Outcome: entry.Outcome,
		IP:      ip,
		At:      entry.CreatedAt,
	})

	if l.repo == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.storeTimeout)
	defer cancel()
	if err := l.repo.Create(sctx, entry); err != nil {
		logging.LogError(ctx, l.logger, "audit: failed to log event", err, "action", action)
	}
}

// Recent returns up to limit of the newest audit entries for email.
func (l *Logger) Recent(ctx context.Context, email string, limit int32) ([]*domain.AuditLog, error) {
	if l.repo == nil {
		return nil, nil
	}
	sctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()
	return l.repo.ListByEmail(sctx, email, limit)
}
