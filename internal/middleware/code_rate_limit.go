package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/locale"
)

// CodeRequestLimit limits one-time-code requests per email (or IP when the
// email is missing) using Redis if available. It fails open.
func CodeRequestLimit(cache *redis.Client, perWindow int, window time.Duration, bundle *locale.Bundle) fiber.Handler {
	if perWindow <= 0 {
		perWindow = 3
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Email string `form:"email" json:"email"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}
		key := "rl:code:" + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, window)
		}
		if cnt > int64(perWindow) {
			msg := bundle.T(locale.FromCtx(c, bundle.Default()), "code_rate_limited")
			return c.Status(fiber.StatusTooManyRequests).JSON(forms.Response{Errors: forms.Field("email", msg), Message: msg})
		}
		return c.Next()
	}
}
