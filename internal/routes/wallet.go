package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/wallet"
)

// RegisterWalletRoutes wires the merchant dashboard.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/dashboard", h.Index)
	r.Get("/dashboard/merchants", h.Index)
	r.Post("/dashboard/merchants", h.Create)
	r.Get("/dashboard/merchants/:id", h.Show)
	r.Get("/dashboard/merchants/:id/receive", h.Receive)
	r.Get("/dashboard/merchants/:id/wallet/create", h.NewWallet)
	r.Post("/dashboard/merchants/:id/wallet/create", h.CreateWallet)
}
