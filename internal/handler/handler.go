package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trophyroom/backend/internal/config"
	"github.com/trophyroom/backend/internal/service"
)

type Handler struct {
	cfg         *config.Config
	userSvc     *service.UserService
	ledgerSvc   *service.LedgerService
	rewardSvc   *service.RewardService
	referralSvc *service.ReferralService
	purchaseSvc *service.PurchaseService
	trophySvc   *service.TrophyService
}

func New(
	cfg *config.Config,
	userSvc *service.UserService,
	ledgerSvc *service.LedgerService,
	rewardSvc *service.RewardService,
	referralSvc *service.ReferralService,
	purchaseSvc *service.PurchaseService,
	trophySvc *service.TrophyService,
) *Handler {
	return &Handler{
		cfg:         cfg,
		userSvc:     userSvc,
		ledgerSvc:   ledgerSvc,
		rewardSvc:   rewardSvc,
		referralSvc: referralSvc,
		purchaseSvc: purchaseSvc,
		trophySvc:   trophySvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
