package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/trophyroom/backend/internal/config"
)

const UserIDKey = "user_id"

// APIAuth validates the mobile client's signed bearer token:
// "<userID>.<hex hmac-sha256(secret, userID)>". Session issuance itself is
// handled by the app's identity provider and is outside this service.
func APIAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		userID, err := ValidateToken(token, cfg.Server.APISecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

func ValidateToken(token, secret string) (int64, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "malformed token")
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}

	if !hmac.Equal([]byte(SignUserID(userID, secret)), []byte(parts[1])) {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "invalid signature")
	}

	return userID, nil
}

// SignUserID produces the signature half of a client token.
func SignUserID(userID int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(userID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func GetUserID(c *fiber.Ctx) int64 {
	userID, ok := c.Locals(UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}
