// Package delivery sends one-time codes to users. Channels return an explicit error; the caller
// decides whether a failure is fatal.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"resume-analyzer/backend/internal/apperr"
)

// Channel delivers a one-time code to email. Implementations must not log the code.
type Channel interface {
	Send(ctx context.Context, email, code string) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(ctx context.Context, email, code string) error

func (f ChannelFunc) Send(ctx context.Context, email, code string) error {
	return f(ctx, email, code)
}

type fallback struct {
	primary   Channel
	secondary Channel
	logger    *slog.Logger
}

// Fallback returns a Channel that tries primary and, if it fails, secondary. A nil primary
// sends straight to secondary. The error returned when both fail wraps both causes.
func Fallback(primary, secondary Channel, logger *slog.Logger) Channel {
	if primary == nil {
		return secondary
	}
	if secondary == nil {
		return primary
	}
	return &fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *fallback) Send(ctx context.Context, email, code string) error {
	perr := f.primary.Send(ctx, email, code)
	if perr == nil {
		return nil
	}
	if f.logger != nil {
		f.logger.WarnContext(ctx, "primary delivery failed, using fallback", "email", email, "error", perr)
	}
	if serr := f.secondary.Send(ctx, email, code); serr != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, errors.Join(perr, serr))
	}
	return nil
}

// LogChannel writes the code to logger at WARN. It exists for local development only; cmd/server
// wires it solely when OTP_DEV_DISCLOSURE is on, which config refuses in production.
type LogChannel struct {
	Logger *slog.Logger
}

func (c LogChannel) Send(ctx context.Context, email, code string) error {
	if c.Logger == nil {
		return fmt.Errorf("%w: no logger", apperr.ErrDeliveryFailure)
	}
	c.Logger.WarnContext(ctx, "DEV MODE ONLY: one-time code", "email", email, "otp", code)
	return nil
}
