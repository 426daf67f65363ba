package middleware_test

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trophyroom/backend/internal/config"
	"github.com/trophyroom/backend/internal/middleware"
)

const testSecret = "test-secret"

func token(userID int64) string {
	return fmt.Sprintf("%d.%s", userID, middleware.SignUserID(userID, testSecret))
}

func TestValidateToken(t *testing.T) {
	userID, err := middleware.ValidateToken(token(42), testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = middleware.ValidateToken(token(42), "other-secret")
	assert.Error(t, err)

	// Signature for one user id must not authenticate another.
	forged := fmt.Sprintf("7.%s", middleware.SignUserID(42, testSecret))
	_, err = middleware.ValidateToken(forged, testSecret)
	assert.Error(t, err)

	_, err = middleware.ValidateToken("garbage", testSecret)
	assert.Error(t, err)
}

func TestAPIAuth(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.APISecret = testSecret

	app := fiber.New()
	app.Use(middleware.APIAuth(cfg))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": middleware.GetUserID(c)})
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(42))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer 42.deadbeef")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
