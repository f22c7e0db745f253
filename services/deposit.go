package services

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"novobicho/config"
	"novobicho/database"
	"novobicho/models"
)

// PaymentNotification is the gateway webhook contract. Amount is centavos,
// already parsed by the controller. Raw keeps the payload as delivered.
type PaymentNotification struct {
	GatewayID  string
	ExternalID string
	UserID     uint
	Amount     int64
	Status     string
	Raw        datatypes.JSON
}

// ProcessDeposit idempotently ingests one deposit notification. The
// (gateway_id, external_id) unique index is checked-and-inserted atomically
// with the ledger credit, so a redelivered webhook returns
// ErrDuplicateTransaction and nothing else happens — the central guarantee
// of the whole engine.
func ProcessDeposit(n PaymentNotification, cfg config.Config) (*models.PaymentTransaction, error) {
	if n.Amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive, got %d", n.Amount)
	}

	ptx := models.PaymentTransaction{
		UserID:     n.UserID,
		Amount:     n.Amount,
		TrxType:    models.PaymentDeposit,
		Status:     n.Status,
		GatewayID:  n.GatewayID,
		ExternalID: n.ExternalID,
		RawPayload: n.Raw,
	}

	// Non-approved notifications are recorded for audit with no ledger
	// effect; a deposit that never arrives approved simply never credits.
	if n.Status != models.PaymentApproved {
		if err := database.DB.Create(&ptx).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateTransaction
			}
			return nil, err
		}
		return &ptx, nil
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ptx).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// Either a redelivery of an approved notification, or the
			// gateway first told us "pending" and is now approving. Only
			// the pending->approved promotion falls through to the
			// credit; anything else already happened.
			if err := promotePendingDeposit(tx, &ptx); err != nil {
				return err
			}
		}

		if err := appendEntry(tx, &models.LedgerEntry{
			UserID:               ptx.UserID,
			Kind:                 models.LedgerDeposit,
			Amount:               ptx.Amount,
			BalanceClass:         models.ClassReal,
			RelatedTransactionID: &ptx.ID,
			Note:                 "deposit via " + n.GatewayID,
		}); err != nil {
			return err
		}
		if err := applyUserDelta(tx, ptx.UserID, ptx.Amount, 0); err != nil {
			return err
		}

		return maybeGrantFirstDeposit(tx, &ptx, cfg)
	})
	if err != nil {
		return nil, err
	}
	return &ptx, nil
}

// promotePendingDeposit handles an approved notification whose key was
// already recorded as pending: the pending->approved transition happens at
// most once, and carries the ledger credit with it.
func promotePendingDeposit(tx *gorm.DB, incoming *models.PaymentTransaction) error {
	var existing models.PaymentTransaction
	err := tx.Where("gateway_id = ? AND external_id = ? AND trx_type = ?",
		incoming.GatewayID, incoming.ExternalID, models.PaymentDeposit).
		First(&existing).Error
	if err != nil {
		return err
	}

	res := tx.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", existing.ID, models.PaymentPending).
		Update("status", models.PaymentApproved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateTransaction
	}

	*incoming = existing
	incoming.Status = models.PaymentApproved
	return nil
}

// maybeGrantFirstDeposit runs inside the deposit transaction: on the user's
// first approved deposit the bonus is granted atomically with the credit.
// The (user_id, bonus_type) unique index absorbs concurrent duplicates.
func maybeGrantFirstDeposit(tx *gorm.DB, ptx *models.PaymentTransaction, cfg config.Config) error {
	var prior int64
	err := tx.Model(&models.PaymentTransaction{}).
		Where("user_id = ? AND trx_type = ? AND status = ? AND id <> ?",
			ptx.UserID, models.PaymentDeposit, models.PaymentApproved, ptx.ID).
		Count(&prior).Error
	if err != nil {
		return err
	}
	if prior > 0 {
		return nil
	}

	_, err = GrantFirstDepositBonus(tx, ptx.UserID, ptx.Amount, ptx.ID, cfg)
	if errors.Is(err, ErrBonusAlreadyGranted) {
		return nil
	}
	return err
}
