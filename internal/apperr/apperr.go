// Package apperr defines the credential subsystem's error taxonomy: sentinel errors that
// services return, and the stable machine-readable kinds and human messages callers see.
package apperr

import "errors"

// Sentinel errors. Services return these directly or joined with an underlying cause;
// match with errors.Is.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserVanished           = errors.New("user no longer exists")
	ErrInvalidOTP             = errors.New("invalid or expired otp")
	ErrOTPNotFound            = errors.New("otp not found")
	ErrOTPExpired             = errors.New("otp expired")
	ErrTokenMalformed         = errors.New("token malformed")
	ErrTokenSignatureInvalid  = errors.New("token signature invalid")
	ErrTokenExpired           = errors.New("token expired")
	ErrDeliveryFailure        = errors.New("otp delivery failed")
	ErrStoreFailure           = errors.New("store failure")
)

// Kind is the stable machine-readable error identifier exposed to callers.
type Kind string

const (
	KindInvalidArgument        Kind = "INVALID_ARGUMENT"
	KindInvalidCredentials     Kind = "INVALID_CREDENTIALS"
	KindEmailAlreadyRegistered Kind = "EMAIL_ALREADY_REGISTERED"
	KindUserNotFound           Kind = "USER_NOT_FOUND"
	KindUserVanished           Kind = "USER_VANISHED"
	KindInvalidOTP             Kind = "INVALID_OTP"
	KindOTPNotFound            Kind = "OTP_NOT_FOUND"
	KindOTPExpired             Kind = "OTP_EXPIRED"
	KindTokenMalformed         Kind = "TOKEN_MALFORMED"
	KindTokenSignatureInvalid  Kind = "TOKEN_SIGNATURE_INVALID"
	KindTokenExpired           Kind = "TOKEN_EXPIRED"
	KindDeliveryFailure        Kind = "DELIVERY_FAILURE"
	KindStoreFailure           Kind = "STORE_FAILURE"
	KindInternal               Kind = "INTERNAL"
)

// Ordered most specific first: an InvalidOTP error joined with OTPNotFound reports OTP_NOT_FOUND.
var kinds = []struct {
	err     error
	kind    Kind
	message string
}{
	{ErrOTPNotFound, KindOTPNotFound, "Invalid or expired OTP"},
	{ErrOTPExpired, KindOTPExpired, "OTP has expired; request a new code"},
	{ErrInvalidOTP, KindInvalidOTP, "Invalid or expired OTP"},
	{ErrInvalidCredentials, KindInvalidCredentials, "Invalid email or password"},
	{ErrEmailAlreadyRegistered, KindEmailAlreadyRegistered, "Email already registered"},
	{ErrUserNotFound, KindUserNotFound, "User not found"},
	{ErrUserVanished, KindUserVanished, "User no longer exists"},
	{ErrTokenExpired, KindTokenExpired, "Session expired; please log in again"},
	{ErrTokenSignatureInvalid, KindTokenSignatureInvalid, "Invalid session token"},
	{ErrTokenMalformed, KindTokenMalformed, "Malformed session token"},
	{ErrInvalidArgument, KindInvalidArgument, "Invalid request"},
	{ErrDeliveryFailure, KindDeliveryFailure, "Could not deliver the one-time code"},
	{ErrStoreFailure, KindStoreFailure, "Service temporarily unavailable"},
}

// KindOf returns the most specific Kind for err, or KindInternal when err matches no sentinel.
// It returns "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Message returns the human-readable message for kind. Messages never include request data.
func Message(kind Kind) string {
	for _, k := range kinds {
		if k.kind == kind {
			return k.message
		}
	}
	return "Internal error"
}
