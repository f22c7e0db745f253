package gateway

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"novobicho/config"
	"novobicho/helpers"
	"novobicho/services"
)

type drawResultNotification struct {
	DrawID uint   `json:"draw_id"`
	Result string `json:"result"`
}

// DrawResultHandler feeds a draw result into settlement. The feed may
// redeliver; a draw that already settled answers 200 with no effect.
func DrawResultHandler(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req drawResultNotification
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}

		err := services.SettleDraw(req.DrawID, req.Result, cfg.SettlementWorkers)
		if err != nil {
			if errors.Is(err, services.ErrDrawAlreadySettled) {
				return helpers.JSONSuccess(c, "ALREADY_SETTLED", nil)
			}
			if errors.Is(err, services.ErrInvalidResult) {
				return helpers.JSONError(c, "INVALID_RESULT")
			}
			if errors.Is(err, services.ErrUnknownDraw) {
				return helpers.JSONError(c, "UNKNOWN_DRAW")
			}
			log.Printf("❌ settle draw %d: %v", req.DrawID, err)
			return helpers.JSONServerError(c, "SETTLEMENT_FAILED")
		}

		return helpers.JSONSuccess(c, "DRAW_SETTLED", fiber.Map{
			"draw_id": req.DrawID,
			"result":  req.Result,
		})
	}
}
