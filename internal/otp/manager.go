// Package otp issues and verifies one-time login codes. Codes are stored hashed, delivered
// asynchronously, and consumed at most once.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/delivery"
	"resume-analyzer/backend/internal/devotp"
	"resume-analyzer/backend/internal/logging"
	"resume-analyzer/backend/internal/otp/domain"
	"resume-analyzer/backend/internal/otp/repository"
	"resume-analyzer/backend/internal/telemetry"
)

var tracer = otel.Tracer("resume-analyzer/backend/otp")

const (
	defaultStoreTimeout    = 5 * time.Second
	defaultDeliveryTimeout = 10 * time.Second
)

// Config holds the manager's settings. TTL and Length are required.
type Config struct {
	TTL             time.Duration
	Length          int
	StoreTimeout    time.Duration
	DeliveryTimeout time.Duration
	// Disclosure receives every issued plaintext code when set. Dev only.
	Disclosure devotp.Store
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
	Now        func() time.Time
}

// Issued is returned by Issue once the challenge is persisted.
type Issued struct {
	Email     string
	ExpiresAt time.Time
	Message   string
}

// Manager runs the challenge lifecycle: unverified on Issue, verified once on a matching Verify.
type Manager struct {
	repo    repository.Repository
	channel delivery.Channel
	cfg     Config
	wg      sync.WaitGroup
}

// NewManager returns a Manager persisting to repo and delivering over channel.
func NewManager(repo repository.Repository, channel delivery.Channel, cfg Config) (*Manager, error) {
	if repo == nil || channel == nil {
		return nil, errors.New("otp: repository and delivery channel are required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("otp: ttl must be positive, got %v", cfg.TTL)
	}
	if cfg.Length < 1 || cfg.Length > 18 {
		return nil, fmt.Errorf("otp: code length %d out of range", cfg.Length)
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = defaultDeliveryTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Manager{repo: repo, channel: channel, cfg: cfg}, nil
}

// Issue supersedes any unverified challenge for email with a fresh one and dispatches the code.
// Delivery runs after persistence and never fails the call; its failures are logged and counted.
func (m *Manager) Issue(ctx context.Context, email string) (_ *Issued, err error) {
	ctx, span := tracer.Start(ctx, "otp.issue")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	code, err := GenerateCode(m.cfg.Length)
	if err != nil {
		return nil, oops.Code("OTP_GENERATE_FAILED").Wrap(err)
	}
	now := m.cfg.Now()
	c := &domain.Challenge{
		ID:        uuid.NewString(),
		Email:     email,
		CodeHash:  domain.HashCode(code),
		ExpiresAt: now.Add(m.cfg.TTL),
		CreatedAt: now,
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	err = m.repo.Replace(sctx, c)
	cancel()
	if err != nil {
		return nil, asStoreFailure("replace otp challenge", err)
	}
	m.cfg.Metrics.OTPIssued(ctx)

	if m.cfg.Disclosure != nil {
		m.cfg.Disclosure.Put(ctx, email, code, c.ExpiresAt)
	}
	m.deliver(ctx, email, code)

	return &Issued{
		Email:     email,
		ExpiresAt: c.ExpiresAt,
		Message:   "OTP sent successfully to " + email,
	}, nil
}

// deliver sends in the background. The send keeps ctx's values (trace) but not its cancellation.
func (m *Manager) deliver(ctx context.Context, email, code string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.DeliveryTimeout)
		defer cancel()
		if err := m.channel.Send(dctx, email, code); err != nil {
			m.cfg.Metrics.DeliveryFailed(dctx)
			logging.LogError(dctx, m.cfg.Logger, "otp delivery failed", err, "email", email)
		}
	}()
}

// Verify consumes the unverified challenge for email matching code. It fails with
// apperr.ErrOTPNotFound when nothing matches (wrong, superseded or already used code) and
// apperr.ErrOTPExpired when the matching challenge is past its expiry.
func (m *Manager) Verify(ctx context.Context, email, code string) (err error) {
	ctx, span := tracer.Start(ctx, "otp.verify")
	outcome := telemetry.OutcomeError
	defer func() {
		m.cfg.Metrics.OTPVerified(ctx, outcome)
		span.SetAttributes(attribute.String("otp.outcome", outcome))
		if outcome == telemetry.OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !wellFormed(code, m.cfg.Length) {
		outcome = telemetry.OutcomeNotFound
		return apperr.ErrOTPNotFound
	}

	sctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	_, err = m.repo.Consume(sctx, email, code, m.cfg.Now())
	cancel()
	switch {
	case err == nil:
		outcome = telemetry.OutcomeSuccess
		if m.cfg.Disclosure != nil {
			m.cfg.Disclosure.Delete(ctx, email)
		}
		return nil
	case errors.Is(err, apperr.ErrOTPNotFound):
		outcome = telemetry.OutcomeNotFound
		return err
	case errors.Is(err, apperr.ErrOTPExpired):
		outcome = telemetry.OutcomeExpired
		return err
	default:
		return asStoreFailure("consume otp challenge", err)
	}
}

// Drain waits for in-flight deliveries or until ctx is done.
func (m *Manager) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func asStoreFailure(op string, err error) error {
	if errors.Is(err, apperr.ErrStoreFailure) {
		return err
	}
	return oops.Code("STORE_FAILURE").With("operation", op).Wrap(fmt.Errorf("%w: %w", apperr.ErrStoreFailure, err))
}
