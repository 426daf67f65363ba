package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/trophyroom/backend/internal/middleware"
	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/service"
)

// GetBalance returns the user's current token balance.
func (h *Handler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	balance, err := h.ledgerSvc.Balance(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get balance",
		})
	}

	return c.JSON(fiber.Map{
		"balance": balance,
	})
}

// GetTransactions returns the user's ledger history, newest first.
func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	entries, err := h.ledgerSvc.Entries(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get transactions",
		})
	}

	return c.JSON(fiber.Map{
		"transactions": entries,
	})
}

type SpendRequest struct {
	Amount int64 `json:"amount"`
}

// Spend debits tokens for an in-app purchase (room decorations and the
// like). The insufficient-funds outcome is expected and user-facing.
func (h *Handler) Spend(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authorization required",
		})
	}

	var req SpendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "amount must be positive",
		})
	}

	balance, err := h.ledgerSvc.Debit(c.Context(), userID, req.Amount, model.EntryKindSpend, nil)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientFunds) {
			current, _ := h.ledgerSvc.Balance(c.Context(), userID)
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":    "insufficient tokens",
				"balance":  current,
				"required": req.Amount,
			})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to spend tokens",
		})
	}

	return c.JSON(fiber.Map{
		"balance": balance,
	})
}
