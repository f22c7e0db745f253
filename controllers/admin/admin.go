package admin

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"novobicho/helpers"
	"novobicho/services"
)

type createDrawRequest struct {
	Name        string    `json:"name"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func CreateDrawHandler(c *fiber.Ctx) error {
	var req createDrawRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Name == "" {
		return helpers.JSONError(c, "MISSING_FIELDS")
	}
	if req.ScheduledAt.IsZero() {
		req.ScheduledAt = time.Now()
	}

	draw, err := services.CreateDraw(req.Name, req.ScheduledAt)
	if err != nil {
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}
	return helpers.JSONSuccess(c, "Draw created", fiber.Map{
		"draw_id": draw.ID,
		"status":  draw.Status,
	})
}

type adjustmentRequest struct {
	UserID uint   `json:"user_id"`
	Amount int64  `json:"amount"` // signed centavos
	Note   string `json:"note"`
}

// AdjustmentHandler runs manual corrections through the same ledger append
// path as everything else; there is no direct balance write to reach from
// here.
func AdjustmentHandler(c *fiber.Ctx) error {
	var req adjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	entry, err := services.AdminAdjust(req.UserID, req.Amount, req.Note)
	if err != nil {
		log.Printf("❌ admin adjustment user=%d amount=%d: %v", req.UserID, req.Amount, err)
		return helpers.JSONError(c, "ADJUSTMENT_FAILED")
	}
	return helpers.JSONSuccess(c, "Adjustment applied", fiber.Map{
		"entry_id": entry.ID,
		"ref_id":   entry.RefID,
	})
}

// ExpireSweepHandler triggers the bonus expiry sweep on demand — the same
// code path the background job runs.
func ExpireSweepHandler(c *fiber.Ctx) error {
	expired, err := services.ExpireBonuses(time.Now())
	if err != nil {
		return helpers.JSONServerError(c, "SWEEP_FAILED")
	}
	return helpers.JSONSuccess(c, "Sweep completed", fiber.Map{
		"expired": expired,
	})
}
