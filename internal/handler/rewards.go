package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/trophyroom/backend/internal/middleware"
	"github.com/trophyroom/backend/internal/service"
)

// EarnRewardedVideo grants the ad-watch reward, rate limited by ledger
// history. Cooldown and daily-cap rejections carry retry metadata and are
// not logged as errors.
func (h *Handler) EarnRewardedVideo(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	result, err := h.rewardSvc.EarnRewardedVideo(c.Context(), userID)
	if err != nil {
		var cooldown *service.CooldownError
		if errors.As(err, &cooldown) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":               "cooldown",
				"retry_after_seconds": int(cooldown.RetryAfter.Seconds()),
			})
		}
		if errors.Is(err, service.ErrDailyLimitReached) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "daily limit reached",
			})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to grant reward",
		})
	}

	return c.JSON(result)
}

// EarnDailyLogin grants the once-per-UTC-day login bonus.
func (h *Handler) EarnDailyLogin(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	result, err := h.rewardSvc.EarnDailyLogin(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyClaimedToday) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "already claimed today",
			})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to grant bonus",
		})
	}

	return c.JSON(result)
}

type ShareRequest struct {
	TrophyID string `json:"trophy_id"`
}

// RewardShare grants the social-share reward; every trophy earns its owner
// at most one, no matter how often it is shared. A repeat share is a
// success-shaped no-op.
func (h *Handler) RewardShare(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	var req ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	trophyID, err := uuid.Parse(req.TrophyID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid trophy id",
		})
	}

	result, err := h.rewardSvc.RewardShare(c.Context(), userID, trophyID)
	if err != nil {
		if errors.Is(err, service.ErrTrophyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "trophy not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to grant reward",
		})
	}

	return c.JSON(result)
}

// GetStarterPack reports whether the one-time starter pack is still
// available, so the UI knows whether to offer it.
func (h *Handler) GetStarterPack(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	claimed, err := h.rewardSvc.StarterPackClaimed(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to check starter pack",
		})
	}

	return c.JSON(fiber.Map{
		"claimed": claimed,
	})
}

// ClaimStarterPack grants the one-time starter pack.
func (h *Handler) ClaimStarterPack(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	result, err := h.rewardSvc.ClaimStarterPack(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyClaimed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "starter pack already claimed",
			})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to claim starter pack",
		})
	}

	return c.JSON(result)
}
