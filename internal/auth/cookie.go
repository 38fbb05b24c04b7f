package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieName carries the session token.
const CookieName = "portal_session"

// SetCookie writes an HTTP-only cookie that expires with the session.
func SetCookie(c *fiber.Ctx, name, value string, expires time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires name in the browser.
func ClearCookie(c *fiber.Ctx, name string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
