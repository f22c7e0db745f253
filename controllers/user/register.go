package user

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"novobicho/config"
	"novobicho/helpers"
	"novobicho/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

func RegisterHandler(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Document = strings.TrimSpace(req.Document)
		if req.Name == "" || req.Document == "" {
			return helpers.JSONError(c, "MISSING_FIELDS")
		}

		user, err := services.RegisterUser(req.Name, req.Document, cfg)
		if err != nil {
			return helpers.JSONError(c, "FAILED_TO_REGISTER_USER")
		}

		return helpers.JSONSuccess(c, "User registered successfully", fiber.Map{
			"user_id":       user.ID,
			"name":          user.Name,
			"real_balance":  user.RealBalance,
			"bonus_balance": user.BonusBalance,
		})
	}
}
