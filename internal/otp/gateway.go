// Package otp asks the registration API to email a one-time code after
// checking that the address is acceptable for the flow in progress.
package otp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/congo-pay/merchant_portal/internal/credentials"
)

// Purpose selects the email-existence polarity.
type Purpose string

const (
	PurposeSignIn       Purpose = "signin"
	PurposeRegistration Purpose = "registration"
	PurposeRecovery     Purpose = "recovery"
)

// wantsExisting reports whether the flow requires an existing account.
func (p Purpose) wantsExisting() bool {
	return p != PurposeRegistration
}

// Kind is the reason a code request was refused. Values double as message
// keys in the locale bundles.
type Kind string

const (
	EmailEmpty         Kind = Kind(credentials.EmailEmpty)
	EmailMalformed     Kind = Kind(credentials.EmailMalformed)
	EmailNotFound      Kind = "email_not_found"
	EmailAlreadyExists Kind = "email_exists"
	DispatchFailed     Kind = "code_not_sent"
)

// Error is returned by RequestCode when no code was sent.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("otp: %s: %v", e.Kind, e.Err)
	}
	return "otp: " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Registry is the part of the registration API the gateway needs.
type Registry interface {
	EmailExists(ctx context.Context, email string) (int, error)
	SendCode(ctx context.Context, email string) error
}

// Gateway requests one-time codes. It never retries.
type Gateway struct {
	registry Registry
	logger   *slog.Logger
}

func NewGateway(registry Registry, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{registry: registry, logger: logger}
}

// RequestCode validates email, checks its existence with the polarity of
// purpose, and triggers code delivery. A nil error means a code was sent.
func (g *Gateway) RequestCode(ctx context.Context, purpose Purpose, email string) error {
	email = credentials.NormalizeEmail(email)
	if kind, ok := credentials.CheckEmail(email); !ok {
		return &Error{Kind: Kind(kind)}
	}

	status, err := g.registry.EmailExists(ctx, email)
	if err != nil {
		g.logger.Warn("email existence check failed", slog.String("purpose", string(purpose)), slog.Any("error", err))
		return &Error{Kind: DispatchFailed, Err: err}
	}
	if purpose.wantsExisting() && status == http.StatusBadRequest {
		return &Error{Kind: EmailNotFound}
	}
	if !purpose.wantsExisting() && status == http.StatusOK {
		return &Error{Kind: EmailAlreadyExists}
	}

	if err := g.registry.SendCode(ctx, email); err != nil {
		g.logger.Warn("code dispatch failed", slog.String("purpose", string(purpose)), slog.Any("error", err))
		return &Error{Kind: DispatchFailed, Err: err}
	}

	g.logger.Info("one-time code requested", slog.String("purpose", string(purpose)))
	return nil
}
