package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/identity"
)

// RegisterAuthRoutes wires the credential step of sign-in, registration and
// recovery, plus sign-out.
func RegisterAuthRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/signin", h.SignIn)
	r.Post("/registration", h.Register)
	r.Post("/recovery", h.Recover)
	r.Post("/signout", h.SignOut)
}
