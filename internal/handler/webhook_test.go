package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trophyroom/backend/internal/config"
	"github.com/trophyroom/backend/internal/handler"
	"github.com/trophyroom/backend/internal/repository"
	"github.com/trophyroom/backend/internal/service"
)

const webhookSecret = "hook-secret"

func newTestApp(t *testing.T) (*fiber.App, *repository.Repository) {
	repo, err := repository.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{}
	cfg.RevenueCat.WebhookSecret = webhookSecret

	h := handler.New(
		cfg,
		service.NewUserService(repo),
		service.NewLedgerService(repo),
		service.NewRewardService(repo, nil),
		service.NewReferralService(repo),
		service.NewPurchaseService(repo),
		service.NewTrophyService(repo),
	)

	app := fiber.New()
	app.Post("/webhook/revenuecat", h.RevenueCatWebhook)
	return app, repo
}

func postWebhook(t *testing.T, app *fiber.App, secret, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/revenuecat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRevenueCatWebhook_RejectsBadSecret(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := postWebhook(t, app, "", `{"event":{}}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = postWebhook(t, app, "wrong-secret", `{"event":{}}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRevenueCatWebhook_CreditsOnce(t *testing.T) {
	app, repo := newTestApp(t)
	ctx := context.Background()

	_, err := service.NewUserService(repo).GetOrCreateUser(ctx, 1, "Anna")
	require.NoError(t, err)

	body := `{"event":{"type":"NON_RENEWING_PURCHASE","app_user_id":"1","product_id":"tokens_100","transaction_id":"tx-1"}}`

	status, out := postWebhook(t, app, webhookSecret, body)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "credited", out["status"])

	status, out = postWebhook(t, app, webhookSecret, body)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "already_processed", out["status"])

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestRevenueCatWebhook_UnknownUser(t *testing.T) {
	app, _ := newTestApp(t)

	body := `{"event":{"type":"INITIAL_PURCHASE","app_user_id":"999","product_id":"pro_monthly"}}`
	status, _ := postWebhook(t, app, webhookSecret, body)
	assert.Equal(t, fiber.StatusNotFound, status)
}
