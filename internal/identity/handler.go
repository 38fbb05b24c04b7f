package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/flow"
	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/locale"
)

// Sessions is the session lifecycle used by sign-in and sign-out.
type Sessions interface {
	Authorize(ctx context.Context, creds auth.Credentials) (auth.Session, error)
	Issue(sess auth.Session) (string, auth.Session, error)
	Revoke(ctx context.Context, sess auth.Session) error
}

// Handler exposes the second step of sign-in, registration and recovery,
// plus sign-out.
type Handler struct {
	service  *Service
	sessions Sessions
	flows    forms.Flows
	bundle   *locale.Bundle
	secure   bool
	logger   *slog.Logger
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, sessions Sessions, flows forms.Flows, bundle *locale.Bundle, secureCookies bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, sessions: sessions, flows: flows, bundle: bundle, secure: secureCookies, logger: logger}
}

type signInRequest struct {
	Password    string `form:"password" json:"password"`
	OTPCode     string `form:"otpcode" json:"otpcode"`
	CallbackURL string `form:"callbackUrl" json:"callbackUrl"`
}

type registerRequest struct {
	OTPCode         string `form:"otpcode" json:"otpcode"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
}

type recoverRequest struct {
	OTPCode         string `form:"otpcode" json:"otpcode"`
	NewPassword     string `form:"newPassword" json:"newPassword"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
}

func (h *Handler) locale(c *fiber.Ctx) string {
	return locale.FromCtx(c, h.bundle.Default())
}

// SignIn handles POST /signin. Any failure yields the same message.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	loc := h.locale(c)
	invalid := func() error {
		return forms.Invalid(c, nil, h.bundle.T(loc, KeyInvalidCredentials))
	}

	fl, err := h.flows.Read(c, flow.SignIn)
	if err != nil || !fl.AwaitingCode(flow.SignIn) {
		return invalid()
	}

	sess, err := h.sessions.Authorize(c.UserContext(), auth.Credentials{Email: fl.Email, Password: req.Password, OTPCode: req.OTPCode})
	if err != nil {
		h.logger.Info("sign-in rejected", slog.Any("error", err))
		return invalid()
	}
	token, sess, err := h.sessions.Issue(sess)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		return invalid()
	}
	if _, err := flow.Reduce(fl, flow.Event{Type: flow.Submitted}); err != nil {
		return err
	}

	auth.SetCookie(c, auth.CookieName, token, sess.ExpiresAt, h.secure)
	h.flows.Clear(c)
	h.logger.Info("signed in", slog.String("user_id", sess.UserID))
	h.service.SignedIn(c.UserContext(), sess.UserID, sess.Email)

	callback := req.CallbackURL
	if callback == "" {
		callback = c.Query("callbackUrl")
	}
	if target := forms.SafeCallback(callback, ""); target != "" {
		return c.Redirect(target, fiber.StatusSeeOther)
	}
	return forms.SeeOther(c, h.bundle.Default(), "/dashboard")
}

// SignOut handles POST /signout.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	sess := auth.FromCtx(c)
	if sess.Present() {
		if err := h.sessions.Revoke(c.UserContext(), sess); err != nil {
			h.logger.Warn("revoke session", slog.String("user_id", sess.UserID), slog.Any("error", err))
		}
	}
	auth.ClearCookie(c, auth.CookieName, h.secure)
	return forms.SeeOther(c, h.bundle.Default(), "/")
}

// Register handles POST /registration.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	fl, err := h.flows.Read(c, flow.Registration)
	if err != nil || !fl.AwaitingCode(flow.Registration) {
		return forms.Invalid(c, nil, h.bundle.T(h.locale(c), KeyFlowExpired))
	}

	err = h.service.Register(c.UserContext(), Registration{
		Email:           fl.Email,
		OTPCode:         req.OTPCode,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	return h.complete(c, fl, err)
}

// Recover handles POST /recovery.
func (h *Handler) Recover(c *fiber.Ctx) error {
	var req recoverRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	fl, err := h.flows.Read(c, flow.Recovery)
	if err != nil || !fl.AwaitingCode(flow.Recovery) {
		return forms.Invalid(c, nil, h.bundle.T(h.locale(c), KeyFlowExpired))
	}

	err = h.service.Recover(c.UserContext(), Recovery{
		Email:           fl.Email,
		OTPCode:         req.OTPCode,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	return h.complete(c, fl, err)
}

// complete renders the result of a registration or recovery submission.
func (h *Handler) complete(c *fiber.Ctx, fl flow.Flow, err error) error {
	loc := h.locale(c)

	var invalid *InvalidError
	var rejected *RejectedError
	switch {
	case errors.As(err, &invalid):
		return forms.Invalid(c, invalid.Failures.Messages(h.bundle, loc), h.bundle.T(loc, KeyValidationFailed))
	case errors.As(err, &rejected):
		msg := h.bundle.T(loc, rejected.Outcome.Key, rejected.Outcome.Field)
		if rejected.Outcome.Field == "" {
			return forms.Invalid(c, nil, msg)
		}
		return forms.Invalid(c, forms.Field(rejected.Outcome.Field, msg), msg)
	case err != nil:
		return err
	}

	if _, err := flow.Reduce(fl, flow.Event{Type: flow.Submitted}); err != nil {
		return err
	}
	h.flows.Clear(c)
	return forms.SeeOther(c, h.bundle.Default(), "/signin")
}
