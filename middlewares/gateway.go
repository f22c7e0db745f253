package middlewares

import (
	"crypto/subtle"
	"os"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuth guards the webhook endpoints with the shared gateway secret.
func GatewayAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("GATEWAY_SECRET")
		got := c.Get("X-Gateway-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "INVALID_GATEWAY_SECRET",
			})
		}
		return c.Next()
	}
}
