package middlewares

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

// UserAuthMiddleware resolves the authenticated caller from the X-User-ID
// header set by the auth proxy in front of this service, and parks the
// user in locals. Session mechanics live outside this engine.
func UserAuthMiddleware(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Get("X-User-ID"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "INVALID_USER",
		})
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "INVALID_USER",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "STORAGE_UNAVAILABLE",
		})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "USER_INACTIVE",
		})
	}

	c.Locals("user", user)
	return c.Next()
}
