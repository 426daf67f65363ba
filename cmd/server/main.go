package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/trophyroom/backend/internal/config"
	"github.com/trophyroom/backend/internal/handler"
	"github.com/trophyroom/backend/internal/middleware"
	"github.com/trophyroom/backend/internal/push"
	"github.com/trophyroom/backend/internal/repository"
	"github.com/trophyroom/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	var repo *repository.Repository
	switch cfg.Database.Driver {
	case "sqlite":
		repo, err = repository.NewSQLite(cfg.Database.Path)
	default:
		repo, err = repository.New(cfg.Database.DSN())
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Push notifier (fire-and-forget queue)
	notifier := push.New(cfg.Push.Endpoint)

	// Create services
	userSvc := service.NewUserService(repo)
	ledgerSvc := service.NewLedgerService(repo)
	rewardSvc := service.NewRewardService(repo, notifier)
	referralSvc := service.NewReferralService(repo)
	purchaseSvc := service.NewPurchaseService(repo)
	trophySvc := service.NewTrophyService(repo)

	// Create handlers
	h := handler.New(cfg, userSvc, ledgerSvc, rewardSvc, referralSvc, purchaseSvc, trophySvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Health check
	app.Get("/health", h.Health)

	// Webhooks (shared-secret auth inside the handler)
	app.Post("/webhook/revenuecat", h.RevenueCatWebhook)

	// API routes with client authentication
	api := app.Group("/api", middleware.APIAuth(cfg))

	// User
	api.Post("/user/register", h.Register)
	api.Get("/user/me", h.GetMe)

	// Balance
	api.Get("/balance", h.GetBalance)
	api.Get("/balance/transactions", h.GetTransactions)
	api.Post("/balance/spend", h.Spend)

	// Rewards
	api.Post("/rewards/video", h.EarnRewardedVideo)
	api.Post("/rewards/daily-login", h.EarnDailyLogin)
	api.Post("/rewards/share", h.RewardShare)
	api.Get("/rewards/starter-pack", h.GetStarterPack)
	api.Post("/rewards/starter-pack", h.ClaimStarterPack)

	// Purchases
	api.Post("/purchase/confirm", h.ConfirmPurchase)

	// Referrals
	api.Get("/referral/code", h.GetReferralCode)
	api.Post("/referral/apply", h.ApplyReferralCode)
	api.Get("/referral/stats", h.GetReferralStats)

	// Trophies (scan-flow glue; the reward triggers hang off these)
	api.Post("/trophies", h.CreateTrophy)
	api.Post("/trophies/:trophy_id/validate", h.ValidateTrophy)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go notifier.Start(ctx)

	engagementWorker := service.NewEngagementWorker(repo, notifier, cfg.Engagement.ScanInterval, cfg.Engagement.InactiveAfter)
	go engagementWorker.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
