package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/trophyroom/backend/internal/middleware"
	"github.com/trophyroom/backend/internal/service"
)

type ConfirmPurchaseRequest struct {
	ProductID     string `json:"product_id"`
	TransactionID string `json:"transaction_id"`
	Tokens        int64  `json:"tokens"`
}

// ConfirmPurchase is the client-side token-pack confirmation. The webhook
// remains the source of truth; this path only makes the credit visible
// immediately, and replays (or the webhook racing it) are no-ops.
func (h *Handler) ConfirmPurchase(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	var req ConfirmPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ProductID == "" || req.TransactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "product_id and transaction_id are required",
		})
	}

	result, err := h.purchaseSvc.CreditVerifiedPurchase(c.Context(), userID, req.ProductID, req.TransactionID, req.Tokens)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid product",
			})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to credit purchase",
		})
	}

	return c.JSON(result)
}
