// Package handler serves the dev-only GET /dev/otp endpoint.
package handler

import (
	"net/http"
	"strings"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/devotp"
	"resume-analyzer/backend/internal/platform/httpjson"
)

const devOTPNote = "DEV MODE ONLY"

// Response is the body of a successful GET /dev/otp.
type Response struct {
	OTP  string `json:"otp"`
	Note string `json:"note"`
}

// Handler reads codes from a dev store. Only mounted when dev disclosure is enabled and not production.
type Handler struct {
	store devotp.Store
}

// New returns a Handler over store.
func New(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// GetOTP returns the latest live code for ?email=. 400 without an email, 404 when missing or expired.
func (h *Handler) GetOTP(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		httpjson.WriteKind(w, apperr.KindInvalidArgument)
		return
	}
	code, ok := h.store.Get(r.Context(), email)
	if !ok {
		httpjson.WriteJSON(w, http.StatusNotFound, httpjson.ErrorBody{Error: httpjson.ErrorDetail{
			Kind:    apperr.KindOTPNotFound,
			Message: "OTP not found or expired",
		}})
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, Response{OTP: code, Note: devOTPNote})
}
