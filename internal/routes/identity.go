package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/flow"
	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/otp"
)

var codeSteps = []struct {
	path    string
	kind    flow.Kind
	purpose otp.Purpose
}{
	{path: "/signin", kind: flow.SignIn, purpose: otp.PurposeSignIn},
	{path: "/registration", kind: flow.Registration, purpose: otp.PurposeRegistration},
	{path: "/recovery", kind: flow.Recovery, purpose: otp.PurposeRecovery},
}

// RegisterCodeRoutes wires the page and the email step of each multi-step
// form. limiter guards every code request.
func RegisterCodeRoutes(r fiber.Router, codes forms.CodeRequester, flows forms.Flows, bundle *locale.Bundle, limiter fiber.Handler, logger *slog.Logger) {
	for _, s := range codeSteps {
		step := forms.CodeStep{
			Kind:    s.kind,
			Purpose: s.purpose,
			Codes:   codes,
			Flows:   flows,
			Bundle:  bundle,
			Logger:  logger,
		}
		r.Get(s.path, step.Page)
		r.Post(s.path+"/email", limiter, step.Submit)
	}
}
