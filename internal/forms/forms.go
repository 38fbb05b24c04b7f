// Package forms holds the response conventions shared by every form action:
// field-level errors, locale-aware redirects and the multi-step flow cookie.
package forms

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/flow"
	"github.com/congo-pay/merchant_portal/internal/locale"
)

// Response is the body of a rejected form submission.
type Response struct {
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Invalid answers 422 with field errors and a summary message.
func Invalid(c *fiber.Ctx, errs map[string][]string, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Response{Errors: errs, Message: message})
}

// Field builds a single-field error set.
func Field(field, message string) map[string][]string {
	return map[string][]string{field: {message}}
}

// SeeOther redirects a completed form to path under the request locale.
func SeeOther(c *fiber.Ctx, defaultLocale, path string) error {
	return c.Redirect(locale.Prefix(locale.FromCtx(c, defaultLocale), path), fiber.StatusSeeOther)
}

// SafeCallback returns raw when it is a local absolute path, otherwise
// fallback. Scheme-relative and absolute URLs are refused.
func SafeCallback(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	if u, err := url.Parse(raw); err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}

// Flows reads and writes the flow cookie.
type Flows struct {
	Codec  *flow.Codec
	Secure bool
}

// Read returns the live flow of kind, or flow.ErrNoFlow.
func (f Flows) Read(c *fiber.Ctx, kind flow.Kind) (flow.Flow, error) {
	return f.Codec.Decode(c.Cookies(flow.CookieName), kind)
}

// Write stores fl in the flow cookie.
func (f Flows) Write(c *fiber.Ctx, fl flow.Flow) error {
	value, exp, err := f.Codec.Encode(fl)
	if err != nil {
		return err
	}
	auth.SetCookie(c, flow.CookieName, value, exp, f.Secure)
	return nil
}

// Clear drops the flow cookie.
func (f Flows) Clear(c *fiber.Ctx) {
	auth.ClearCookie(c, flow.CookieName, f.Secure)
}
