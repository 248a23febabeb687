package audit

import (
	"strings"

	"resume-analyzer/backend/internal/apperr"
)

// OutcomeSuccess is the outcome recorded for a nil error.
const OutcomeSuccess = "success"

// OutcomeOf maps err to the outcome stored in the audit trail: "success" for nil, otherwise the
// lower-cased error kind (e.g. "invalid_credentials", "otp_expired").
func OutcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return strings.ToLower(string(apperr.KindOf(err)))
}
