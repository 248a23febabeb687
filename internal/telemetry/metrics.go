package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for the auth counters.
const MeterName = "resume-analyzer/backend/auth"

// Outcome values recorded on the outcome attribute.
const (
	OutcomeSuccess          = "success"
	OutcomeInvalid          = "invalid"
	OutcomeNotFound         = "not_found"
	OutcomeExpired          = "expired"
	OutcomeMalformed        = "malformed"
	OutcomeSignatureInvalid = "signature_invalid"
	OutcomeError            = "error"
)

// Metrics holds the auth counters. A nil *Metrics records nothing.
type Metrics struct {
	otpIssued        metric.Int64Counter
	otpVerifications metric.Int64Counter
	deliveryFailures metric.Int64Counter
	tokenValidations metric.Int64Counter
	loginAttempts    metric.Int64Counter
}

// NewMetrics registers the auth counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error
	if m.otpIssued, err = meter.Int64Counter("auth_otp_issued_total",
		metric.WithDescription("One-time codes issued")); err != nil {
		return nil, err
	}
	if m.otpVerifications, err = meter.Int64Counter("auth_otp_verifications_total",
		metric.WithDescription("One-time code verifications by outcome")); err != nil {
		return nil, err
	}
	if m.deliveryFailures, err = meter.Int64Counter("auth_otp_delivery_failures_total",
		metric.WithDescription("One-time code deliveries that failed")); err != nil {
		return nil, err
	}
	if m.tokenValidations, err = meter.Int64Counter("auth_token_validations_total",
		metric.WithDescription("Session token validations by outcome")); err != nil {
		return nil, err
	}
	if m.loginAttempts, err = meter.Int64Counter("auth_login_attempts_total",
		metric.WithDescription("Password login attempts by outcome")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) OTPIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.otpIssued.Add(ctx, 1)
}

func (m *Metrics) OTPVerified(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.otpVerifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) DeliveryFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.deliveryFailures.Add(ctx, 1)
}

func (m *Metrics) TokenValidated(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.tokenValidations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) LoginAttempted(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
