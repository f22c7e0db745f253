package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"novobicho/helpers"
	"novobicho/services"
)

type placeBetRequest struct {
	DrawID    uint   `json:"draw_id"`
	GameMode  string `json:"game_mode"`
	Selection string `json:"selection"`
	Amount    int64  `json:"amount"` // centavos
}

func PlaceBetHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	var req placeBetRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Amount <= 0 {
		return helpers.JSONError(c, "INVALID_AMOUNT")
	}

	bet, err := services.PlaceBet(user.ID, req.DrawID, req.GameMode, req.Selection, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientFunds):
			return helpers.JSONError(c, "INSUFFICIENT_FUNDS")
		case errors.Is(err, services.ErrDrawClosed):
			return helpers.JSONError(c, "DRAW_CLOSED")
		case errors.Is(err, services.ErrUnknownGameMode):
			return helpers.JSONError(c, "UNKNOWN_GAME_MODE")
		case errors.Is(err, services.ErrInvalidSelection):
			return helpers.JSONError(c, "INVALID_SELECTION")
		default:
			return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
		}
	}

	return helpers.JSONSuccess(c, "Bet placed", fiber.Map{
		"bet_id":        bet.ID,
		"potential_win": bet.PotentialWin,
		"funding_real":  bet.FundingReal,
		"funding_bonus": bet.FundingBonus,
	})
}

func ListBetsHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	bets, err := services.BetsFor(user.ID)
	if err != nil {
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}
	return helpers.JSONSuccess(c, "OK", bets)
}
