package gateway

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"novobicho/config"
	"novobicho/helpers"
	"novobicho/models"
	"novobicho/services"
)

type paymentNotification struct {
	GatewayID  string                `json:"gateway_id"`
	ExternalID string                `json:"external_id"`
	UserID     uint                  `json:"user_id"`
	Amount     models.FlexibleString `json:"amount"`
	Type       string                `json:"type"`
	Status     string                `json:"status"`
}

// PaymentHandler ingests deposit notifications and withdrawal outcomes.
// Redelivery answers 200 so the gateway stops retrying.
func PaymentHandler(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req paymentNotification
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}

		switch req.Type {
		case models.PaymentDeposit:
			return handleDeposit(c, req, cfg)
		case models.PaymentWithdrawal:
			return handleWithdrawalOutcome(c, req)
		default:
			return helpers.JSONError(c, "UNKNOWN_PAYMENT_TYPE")
		}
	}
}

func handleDeposit(c *fiber.Ctx, req paymentNotification, cfg config.Config) error {
	if req.GatewayID == "" || req.ExternalID == "" {
		return helpers.JSONError(c, "MISSING_IDEMPOTENCY_KEY")
	}
	amount, err := helpers.ParseAmount(string(req.Amount))
	if err != nil {
		return helpers.JSONError(c, "INVALID_AMOUNT")
	}

	ptx, err := services.ProcessDeposit(services.PaymentNotification{
		GatewayID:  req.GatewayID,
		ExternalID: req.ExternalID,
		UserID:     req.UserID,
		Amount:     amount,
		Status:     req.Status,
		Raw:        datatypes.JSON(c.Body()),
	}, cfg)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateTransaction) {
			return helpers.JSONSuccess(c, "DUPLICATE_IGNORED", nil)
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return helpers.JSONError(c, "UNKNOWN_USER")
		}
		log.Printf("❌ deposit %s/%s: %v", req.GatewayID, req.ExternalID, err)
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}

	return helpers.JSONSuccess(c, "PAYMENT_RECORDED", fiber.Map{
		"transaction_id": ptx.ID,
		"status":         ptx.Status,
	})
}

func handleWithdrawalOutcome(c *fiber.Ctx, req paymentNotification) error {
	ptx, err := services.ResolveWithdrawal(req.ExternalID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateTransaction) {
			return helpers.JSONSuccess(c, "DUPLICATE_IGNORED", nil)
		}
		if errors.Is(err, services.ErrNoPendingWithdrawal) {
			return helpers.JSONError(c, "UNKNOWN_WITHDRAWAL")
		}
		log.Printf("❌ withdrawal outcome %s: %v", req.ExternalID, err)
		return helpers.JSONServerError(c, "STORAGE_UNAVAILABLE")
	}

	return helpers.JSONSuccess(c, "WITHDRAWAL_RESOLVED", fiber.Map{
		"transaction_id": ptx.ID,
		"status":         ptx.Status,
	})
}
