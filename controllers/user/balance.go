package user

import (
	"github.com/gofiber/fiber/v2"

	"novobicho/helpers"
	"novobicho/models"
	"novobicho/services"
)

func currentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals("user").(models.User)
	return user, ok
}

func BalanceHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	balances, err := services.CurrentBalances(user.ID)
	if err != nil {
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}

	return helpers.JSONSuccess(c, "OK", fiber.Map{
		"real":      balances.Real,
		"bonus":     balances.Bonus,
		"real_fmt":  helpers.FormatAmount(balances.Real),
		"bonus_fmt": helpers.FormatAmount(balances.Bonus),
	})
}

func StatementHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	entries, err := services.EntriesFor(user.ID)
	if err != nil {
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}
	return helpers.JSONSuccess(c, "OK", entries)
}

func BonusesHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	bonuses, err := services.BonusSummary(user.ID)
	if err != nil {
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}
	return helpers.JSONSuccess(c, "OK", bonuses)
}
