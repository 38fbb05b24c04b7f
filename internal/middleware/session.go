package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/auth"
)

// SessionResolver verifies session tokens.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (auth.Session, error)
}

// Session reads the session cookie once per request and stores the result
// for the guard and handlers. Expired, forged and revoked cookies are
// cleared and the request continues as unauthenticated.
func Session(sessions SessionResolver, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(auth.CookieName)
		if token == "" {
			return c.Next()
		}
		sess, err := sessions.Resolve(c.UserContext(), token)
		switch {
		case err == nil:
			auth.Store(c, sess)
		case errors.Is(err, auth.ErrSessionExpired):
			auth.Store(c, sess)
			auth.ClearCookie(c, auth.CookieName, secureCookies)
		default:
			auth.ClearCookie(c, auth.CookieName, secureCookies)
		}
		return c.Next()
	}
}
