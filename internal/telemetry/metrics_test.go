package telemetry_test

import (
	"context"
	"testing"

	"resume-analyzer/backend/internal/telemetry"
	"resume-analyzer/backend/internal/telemetry/telemetrytest"
)

func TestMetrics_Counters(t *testing.T) {
	m, read := telemetrytest.NewMetrics(t)
	ctx := context.Background()

	m.OTPIssued(ctx)
	m.OTPIssued(ctx)
	m.OTPVerified(ctx, telemetry.OutcomeSuccess)
	m.OTPVerified(ctx, telemetry.OutcomeNotFound)
	m.OTPVerified(ctx, telemetry.OutcomeNotFound)
	m.DeliveryFailed(ctx)
	m.TokenValidated(ctx, telemetry.OutcomeExpired)
	m.LoginAttempted(ctx, telemetry.OutcomeInvalid)

	checks := []struct {
		name    string
		outcome string
		want    int64
	}{
		{"auth_otp_issued_total", "", 2},
		{"auth_otp_verifications_total", telemetry.OutcomeSuccess, 1},
		{"auth_otp_verifications_total", telemetry.OutcomeNotFound, 2},
		{"auth_otp_verifications_total", "", 3},
		{"auth_otp_delivery_failures_total", "", 1},
		{"auth_token_validations_total", telemetry.OutcomeExpired, 1},
		{"auth_login_attempts_total", telemetry.OutcomeInvalid, 1},
		{"auth_login_attempts_total", telemetry.OutcomeSuccess, 0},
	}
	for _, c := range checks {
		if got := read(c.name, c.outcome); got != c.want {
			t.Errorf("%s{outcome=%q} = %d, want %d", c.name, c.outcome, got, c.want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.Metrics
	ctx := context.Background()
	m.OTPIssued(ctx)
	m.OTPVerified(ctx, telemetry.OutcomeSuccess)
	m.DeliveryFailed(ctx)
	m.TokenValidated(ctx, telemetry.OutcomeSuccess)
	m.LoginAttempted(ctx, telemetry.OutcomeSuccess)
}
