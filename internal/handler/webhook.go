package handler

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/service"
)

// RevenueCatWebhook receives purchase and subscription lifecycle events
// from the billing provider. It is the source of truth for token credits
// and the subscription flag, regardless of what the client reports.
// Signature verification happens before anything touches storage.
func (h *Handler) RevenueCatWebhook(c *fiber.Ctx) error {
	if secret := h.cfg.RevenueCat.WebhookSecret; secret != "" {
		auth := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(auth), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid webhook secret",
			})
		}
	}

	var payload model.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	outcome, err := h.purchaseSvc.ProcessWebhookEvent(c.Context(), payload.Event)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAppUser) || errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown app user",
			})
		}
		if errors.Is(err, service.ErrInvalidProduct) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown product id",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to process event",
		})
	}

	return c.JSON(fiber.Map{
		"status": outcome,
	})
}
