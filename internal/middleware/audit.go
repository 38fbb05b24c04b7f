package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/locale"
)

// Audit emits one structured log line per request. It reads what the
// session and guard middleware left on the request, so it sees the
// original path even after the guard rewrote it.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := utils.CopyString(c.Path())
		err := c.Next()

		status := c.Response().StatusCode()
		duration := time.Since(start)
		requestID, _ := c.Locals(requestIDHeader).(string)

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		}
		if requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if class := ClassFromCtx(c); class != "" {
			attrs = append(attrs, slog.String("class", string(class)))
		}
		if loc := locale.FromCtx(c, ""); loc != "" {
			attrs = append(attrs, slog.String("locale", loc))
		}
		if sess := auth.FromCtx(c); sess.Present() {
			attrs = append(attrs, slog.String("user_id", sess.UserID))
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request completed", attrs...)
			return err
		}

		logger.Info("request completed", attrs...)
		return nil
	}
}
