package audit

import (
	"errors"
	"fmt"
	"testing"

	"resume-analyzer/backend/internal/apperr"
)

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{apperr.ErrInvalidCredentials, "invalid_credentials"},
		{fmt.Errorf("%w: %w", apperr.ErrInvalidOTP, apperr.ErrOTPExpired), "otp_expired"},
		{fmt.Errorf("%w: %w", apperr.ErrInvalidOTP, apperr.ErrOTPNotFound), "otp_not_found"},
		{apperr.ErrEmailAlreadyRegistered, "email_already_registered"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := OutcomeOf(tt.err); got != tt.want {
			t.Errorf("OutcomeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
