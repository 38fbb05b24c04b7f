package forms

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/flow"
	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/otp"
)

// CodeRequester sends one-time codes.
type CodeRequester interface {
	RequestCode(ctx context.Context, purpose otp.Purpose, email string) error
}

// CodeStep serves the first step of a multi-step form: it requests a code
// for the submitted email and advances the flow to the code-and-password step.
type CodeStep struct {
	Kind    flow.Kind
	Purpose otp.Purpose
	Codes   CodeRequester
	Flows   Flows
	Bundle  *locale.Bundle
	Logger  *slog.Logger
}

// Submit handles POST /{kind}/email.
func (s CodeStep) Submit(c *fiber.Ctx) error {
	var form credentials.EmailForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	loc := locale.FromCtx(c, s.Bundle.Default())
	email := credentials.NormalizeEmail(form.Email)

	if err := s.Codes.RequestCode(c.UserContext(), s.Purpose, email); err != nil {
		var oe *otp.Error
		if !errors.As(err, &oe) {
			return err
		}
		msg := s.Bundle.T(loc, string(oe.Kind), "email")
		return Invalid(c, Field("email", msg), msg)
	}

	next, err := flow.Reduce(flow.New(s.Kind), flow.Event{Type: flow.CodeSent, Email: email})
	if err != nil {
		return err
	}
	if err := s.Flows.Write(c, next); err != nil {
		s.Logger.Error("write flow cookie", slog.String("flow", string(s.Kind)), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "could not continue")
	}

	path := "/" + string(s.Kind)
	if cb := c.Query("callbackUrl"); cb != "" && s.Kind == flow.SignIn {
		path += "?callbackUrl=" + url.QueryEscape(SafeCallback(cb, "/dashboard"))
	}
	return SeeOther(c, s.Bundle.Default(), path)
}

// PageState is the view model of a multi-step form page.
type PageState struct {
	Kind        flow.Kind `json:"kind"`
	Step        string    `json:"step"`
	Email       string    `json:"email,omitempty"`
	CallbackURL string    `json:"callbackUrl,omitempty"`
}

// Page handles GET /{kind}: the step is taken from the flow cookie.
func (s CodeStep) Page(c *fiber.Ctx) error {
	state := PageState{Kind: s.Kind, Step: flow.EmailEntry.String()}
	if fl, err := s.Flows.Read(c, s.Kind); err == nil && fl.AwaitingCode(s.Kind) {
		state.Step = fl.Step.String()
		state.Email = fl.Email
	}
	if s.Kind == flow.SignIn {
		state.CallbackURL = SafeCallback(c.Query("callbackUrl"), "")
	}
	return c.JSON(state)
}
