package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/trophyroom/backend/internal/middleware"
	"github.com/trophyroom/backend/internal/service"
)

type ApplyReferralRequest struct {
	Code string `json:"code"`
}

func (h *Handler) GetReferralCode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	user, err := h.userSvc.GetUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	return c.JSON(fiber.Map{
		"code": user.ReferralCode,
	})
}

func (h *Handler) ApplyReferralCode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	var req ApplyReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	if err := h.referralSvc.ApplyReferralCode(c.Context(), userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "referral code not found",
			})
		case errors.Is(err, service.ErrSelfReferral):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "cannot apply your own code",
			})
		case errors.Is(err, service.ErrAlreadyReferred):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "a referral code was already applied",
			})
		case errors.Is(err, service.ErrReferrerCapReached):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "this code has reached its referral limit",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to apply referral code",
		})
	}

	return c.JSON(fiber.Map{
		"applied": true,
	})
}

func (h *Handler) GetReferralStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	stats, err := h.referralSvc.Stats(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get referral stats",
		})
	}

	return c.JSON(stats)
}
