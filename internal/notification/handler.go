package notification

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/locale"
)

// Handler serves the notification settings page.
type Handler struct {
	service *Service
	bundle  *locale.Bundle
}

// NewHandler constructs a notification settings handler.
func NewHandler(service *Service, bundle *locale.Bundle) *Handler {
	return &Handler{service: service, bundle: bundle}
}

type settingsPage struct {
	Catalog  []Group  `json:"catalog"`
	Settings Settings `json:"settings"`
}

// Get handles GET /dashboard/settings/notifications.
func (h *Handler) Get(c *fiber.Ctx) error {
	sess := auth.FromCtx(c)
	if !sess.Present() || sess.UserID == "" {
		return fiber.ErrNotFound
	}
	settings, err := h.service.Get(c.UserContext(), sess.UserID)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "preferences unavailable")
	}
	return c.JSON(settingsPage{Catalog: Catalog, Settings: settings})
}

// Update handles POST /dashboard/settings/notifications.
func (h *Handler) Update(c *fiber.Ctx) error {
	sess := auth.FromCtx(c)
	if !sess.Present() || sess.UserID == "" {
		return fiber.ErrNotFound
	}
	var changes Settings
	if err := c.BodyParser(&changes); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	settings, err := h.service.Update(c.UserContext(), sess.UserID, changes)
	if errors.Is(err, ErrUnknownOption) {
		loc := locale.FromCtx(c, h.bundle.Default())
		return forms.Invalid(c, nil, h.bundle.T(loc, "validation_failed"))
	}
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "preferences unavailable")
	}
	return c.JSON(settingsPage{Catalog: Catalog, Settings: settings})
}
