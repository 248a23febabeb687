// Package httpjson writes JSON responses and maps apperr kinds to HTTP error bodies.
package httpjson

import (
	"encoding/json"
	"net/http"

	"resume-analyzer/backend/internal/apperr"
)

// ErrorBody is the wire shape of every error response: {"error":{"kind":...,"message":...}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable kind and the human message. Never request data or internals.
type ErrorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// WriteJSON writes payload with status. A nil payload writes only the status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes err as an ErrorBody with the status for its kind.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	WriteKind(w, kind)
}

// WriteKind writes an ErrorBody for kind.
func WriteKind(w http.ResponseWriter, kind apperr.Kind) {
	WriteJSON(w, StatusFor(kind), ErrorBody{Error: ErrorDetail{Kind: kind, Message: apperr.Message(kind)}})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindInvalidCredentials,
		apperr.KindInvalidOTP, apperr.KindOTPNotFound, apperr.KindOTPExpired,
		apperr.KindTokenMalformed, apperr.KindTokenSignatureInvalid, apperr.KindTokenExpired:
		return http.StatusUnauthorized
	case apperr.KindEmailAlreadyRegistered:
		return http.StatusConflict
	case apperr.KindUserNotFound, apperr.KindUserVanished:
		return http.StatusNotFound
	case apperr.KindDeliveryFailure:
		return http.StatusBadGateway
	case apperr.KindStoreFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
