package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"novobicho/helpers"
	"novobicho/services"
)

type withdrawalRequest struct {
	Amount int64 `json:"amount"` // centavos
}

func RequestWithdrawalHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	var req withdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Amount <= 0 {
		return helpers.JSONError(c, "INVALID_AMOUNT")
	}

	ptx, err := services.RequestWithdrawal(user.ID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientFunds):
			return helpers.JSONError(c, "INSUFFICIENT_FUNDS")
		case errors.Is(err, services.ErrWithdrawalAlreadyPending):
			return helpers.JSONError(c, "WITHDRAWAL_ALREADY_PENDING")
		default:
			return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
		}
	}

	return helpers.JSONSuccess(c, "Withdrawal requested", fiber.Map{
		"transaction_id": ptx.ID,
		"external_id":    ptx.ExternalID,
		"amount":         ptx.Amount,
		"status":         ptx.Status,
	})
}

func PendingWithdrawalHandler(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return helpers.JSONError(c, "INVALID_USER_SESSION")
	}

	ptx, err := services.PendingWithdrawal(user.ID)
	if err != nil {
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}
	if ptx == nil {
		return helpers.JSONSuccess(c, "OK", nil)
	}
	return helpers.JSONSuccess(c, "OK", ptx)
}
