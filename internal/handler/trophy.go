package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/trophyroom/backend/internal/middleware"
	"github.com/trophyroom/backend/internal/service"
)

type CreateTrophyRequest struct {
	RaceName string `json:"race_name"`
}

// CreateTrophy records a scanned medal. The scan wizard and AI matching
// live elsewhere; this is only the persistence hook they call.
func (h *Handler) CreateTrophy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	var req CreateTrophyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	trophy, err := h.trophySvc.CreateTrophy(c.Context(), userID, req.RaceName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create trophy",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(trophy)
}

type ValidateTrophyRequest struct {
	ResultID string `json:"result_id"`
}

// ValidateTrophy links a race result to a trophy and fires the referral
// trigger. The reward decision is entirely the reward engine's; a trigger
// failure is logged but never fails the validation itself.
func (h *Handler) ValidateTrophy(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	trophyID, err := uuid.Parse(c.Params("trophy_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid trophy id",
		})
	}

	var req ValidateTrophyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ResultID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "result_id is required",
		})
	}

	linked, err := h.trophySvc.ValidateTrophy(c.Context(), userID, trophyID, req.ResultID)
	if err != nil {
		if errors.Is(err, service.ErrTrophyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "trophy not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to validate trophy",
		})
	}

	if linked {
		if err := h.rewardSvc.OnTrophyValidated(c.Context(), userID); err != nil {
			log.Printf("[Trophy] Referral trigger failed for user %d: %v", userID, err)
		}
	}

	return c.JSON(fiber.Map{
		"validated": true,
		"linked":    linked,
	})
}
