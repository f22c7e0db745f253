package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

// PayoutGateway identifies the gateway withdrawals are sent through; the
// generated external id is echoed back in its outcome notification.
const PayoutGateway = "novopay"

// RequestWithdrawal debits the real balance pessimistically and records a
// pending PaymentTransaction for the gateway to resolve. Bonus funds are
// never withdrawable. At most one withdrawal may be pending per user; the
// debit updates the user row first, so the row lock it takes serializes
// concurrent requests and the pending count that follows cannot be raced
// past.
func RequestWithdrawal(userID uint, amount int64) (*models.PaymentTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %d", amount)
	}

	var ptx *models.PaymentTransaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := applyUserDelta(tx, userID, -amount, 0); err != nil {
			return err
		}

		var pending int64
		err := tx.Model(&models.PaymentTransaction{}).
			Where("user_id = ? AND trx_type = ? AND status = ?",
				userID, models.PaymentWithdrawal, models.PaymentPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrWithdrawalAlreadyPending
		}

		ptx = &models.PaymentTransaction{
			UserID:     userID,
			Amount:     amount,
			TrxType:    models.PaymentWithdrawal,
			Status:     models.PaymentPending,
			GatewayID:  PayoutGateway,
			ExternalID: uuid.NewString(),
		}
		if err := tx.Create(ptx).Error; err != nil {
			return err
		}

		return appendEntry(tx, &models.LedgerEntry{
			UserID:               userID,
			Kind:                 models.LedgerWithdrawal,
			Amount:               -amount,
			BalanceClass:         models.ClassReal,
			RelatedTransactionID: &ptx.ID,
			Note:                 "withdrawal requested",
		})
	})
	if err != nil {
		return nil, err
	}
	return ptx, nil
}

// ResolveWithdrawal reconciles the gateway's asynchronous outcome. Approved
// leaves the pessimistic debit in place; rejected restores the funds with a
// reversing credit entry, never by direct field mutation. The
// pending->approved|rejected transition makes redelivery a no-op.
func ResolveWithdrawal(externalID, outcome string) (*models.PaymentTransaction, error) {
	if outcome != models.PaymentApproved && outcome != models.PaymentRejected {
		return nil, fmt.Errorf("unknown withdrawal outcome %q", outcome)
	}

	var ptx models.PaymentTransaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ? AND trx_type = ?", externalID, models.PaymentWithdrawal).
			First(&ptx).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoPendingWithdrawal
			}
			return err
		}

		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND status = ?", ptx.ID, models.PaymentPending).
			Update("status", outcome)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateTransaction
		}
		ptx.Status = outcome

		if outcome == models.PaymentApproved {
			return nil
		}

		if err := appendEntry(tx, &models.LedgerEntry{
			UserID:               ptx.UserID,
			Kind:                 models.LedgerWithdrawal,
			Amount:               ptx.Amount,
			BalanceClass:         models.ClassReal,
			RelatedTransactionID: &ptx.ID,
			Note:                 "withdrawal rejected by gateway, funds returned",
		}); err != nil {
			return err
		}
		return applyUserDelta(tx, ptx.UserID, ptx.Amount, 0)
	})
	if err != nil {
		return nil, err
	}
	return &ptx, nil
}

// PendingWithdrawal returns the user's pending withdrawal, or nil.
func PendingWithdrawal(userID uint) (*models.PaymentTransaction, error) {
	var ptx models.PaymentTransaction
	err := database.DB.
		Where("user_id = ? AND trx_type = ? AND status = ?",
			userID, models.PaymentWithdrawal, models.PaymentPending).
		First(&ptx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ptx, nil
}
