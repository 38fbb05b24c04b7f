package wallet

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/locale"
)

// Handler exposes the merchant dashboard.
type Handler struct {
	service *Service
	bundle  *locale.Bundle
	logger  *slog.Logger
}

// NewHandler builds a dashboard HTTP handler.
func NewHandler(service *Service, bundle *locale.Bundle, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, bundle: bundle, logger: logger}
}

// pageError renders page failures. Missing credentials and upstream refusals
// are both a plain 404.
func (h *Handler) pageError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.ErrNotFound
	}
	h.logger.Warn("dashboard page failed", slog.String("path", c.Path()), slog.Any("error", err))
	return fiber.NewError(http.StatusServiceUnavailable, h.bundle.T(locale.FromCtx(c, h.bundle.Default()), "try_again_later"))
}

// formError renders a rejected create-merchant or create-wallet submission.
func (h *Handler) formError(c *fiber.Ctx, err error) error {
	loc := locale.FromCtx(c, h.bundle.Default())
	var invalid *InvalidError
	var rejected *RejectedError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.ErrNotFound
	case errors.As(err, &invalid):
		return forms.Invalid(c, invalid.Failures.Messages(h.bundle, loc), h.bundle.T(loc, "validation_failed"))
	case errors.As(err, &rejected):
		msg := h.bundle.T(loc, rejected.Key)
		if rejected.Field == "" {
			return forms.Invalid(c, nil, msg)
		}
		return forms.Invalid(c, forms.Field(rejected.Field, msg), msg)
	}
	return err
}

// Index handles GET /dashboard.
func (h *Handler) Index(c *fiber.Ctx) error {
	merchants, err := h.service.Merchants(c.UserContext(), auth.FromCtx(c))
	if err != nil {
		return h.pageError(c, err)
	}
	return c.JSON(fiber.Map{"merchants": merchants})
}

// Show handles GET /dashboard/merchants/:id.
func (h *Handler) Show(c *fiber.Ctx) error {
	page, err := h.service.MerchantPage(c.UserContext(), auth.FromCtx(c), c.Params("id"))
	if err != nil {
		return h.pageError(c, err)
	}
	return c.JSON(page)
}

// Receive handles GET /dashboard/merchants/:id/receive.
func (h *Handler) Receive(c *fiber.Ctx) error {
	page, err := h.service.Receive(c.UserContext(), auth.FromCtx(c), c.Params("id"))
	if err != nil {
		return h.pageError(c, err)
	}
	return c.JSON(page)
}

// NewWallet handles GET /dashboard/merchants/:id/wallet/create.
func (h *Handler) NewWallet(c *fiber.Ctx) error {
	m, err := h.service.Merchant(c.UserContext(), auth.FromCtx(c), c.Params("id"))
	if err != nil {
		return h.pageError(c, err)
	}
	return c.JSON(fiber.Map{"merchant": m, "coin": m.Currency})
}

// Create handles POST /dashboard/merchants.
func (h *Handler) Create(c *fiber.Ctx) error {
	var form CreateMerchantForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id, err := h.service.CreateMerchant(c.UserContext(), auth.FromCtx(c), form)
	if err != nil {
		return h.formError(c, err)
	}
	return forms.SeeOther(c, h.bundle.Default(), "/dashboard/merchants/"+url.PathEscape(id))
}

// CreateWallet handles POST /dashboard/merchants/:id/wallet/create.
func (h *Handler) CreateWallet(c *fiber.Ctx) error {
	var form CreateWalletForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id := c.Params("id")
	if err := h.service.CreateWallet(c.UserContext(), auth.FromCtx(c), id, form); err != nil {
		return h.formError(c, err)
	}
	return forms.SeeOther(c, h.bundle.Default(), "/dashboard/merchants/"+url.PathEscape(id))
}
