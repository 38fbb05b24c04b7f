package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/congo-pay/merchant_portal/internal/upstream"
)

const requestIDHeader = upstream.RequestIDHeader

// RequestID ensures each request has a request identifier. The id is echoed
// in the response and forwarded on upstream calls made with the request's
// user context.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals(requestIDHeader, reqID)
		c.SetUserContext(upstream.WithRequestID(c.UserContext(), reqID))

		return c.Next()
	}
}
