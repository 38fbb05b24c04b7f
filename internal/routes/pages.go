package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/middleware"
	"github.com/congo-pay/merchant_portal/internal/notification"
)

// RegisterPublicRoutes serves the marketing pages as page descriptors.
func RegisterPublicRoutes(r fiber.Router, bundle *locale.Bundle) {
	for _, page := range middleware.PublicPages {
		r.Get(page, func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"page":    page,
				"locale":  locale.FromCtx(c, bundle.Default()),
				"locales": locale.Supported,
			})
		})
	}
}

// RegisterNotificationRoutes wires the notification settings page.
func RegisterNotificationRoutes(r fiber.Router, h *notification.Handler) {
	r.Get("/dashboard/settings/notifications", h.Get)
	r.Post("/dashboard/settings/notifications", h.Update)
}
