package domain

import "time"

// Actions recorded in the audit trail.
const (
	ActionSignup    = "signup"
	ActionLogin     = "login"
	ActionOTPVerify = "otp_verify"
	ActionOTPResend = "otp_resend"
)

// AuditLog represents one auth event (stored in audit_logs). Email may be empty when the
// request carried none. Never holds passwords, codes, or tokens.
type AuditLog struct {
	ID        string
	Email     string
	Action    string
	Outcome   string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
