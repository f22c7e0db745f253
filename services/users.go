package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"novobicho/config"
	"novobicho/database"
	"novobicho/models"
)

// RegisterUser creates a user and, when enabled, grants the signup bonus
// in the same transaction.
func RegisterUser(name, document string, cfg config.Config) (*models.User, error) {
	user := models.User{
		Name:     name,
		Document: document,
		IsActive: true,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("document %s already registered", document)
			}
			return err
		}
		_, err := GrantSignupBonus(tx, user.ID, cfg)
		if err != nil && !errors.Is(err, ErrBonusAlreadyGranted) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Reload: the grant touched the cached balances.
	if err := database.DB.First(&user, user.ID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminAdjust applies a manual correction through the ledger append path.
// Positive credits, negative debits, real class only; there is no code
// path that writes balance fields without an entry.
func AdminAdjust(userID uint, amount int64, note string) (*models.LedgerEntry, error) {
	if amount == 0 {
		return nil, fmt.Errorf("adjustment amount must be non-zero")
	}
	kind := models.LedgerDeposit
	if amount < 0 {
		kind = models.LedgerWithdrawal
	}

	entry := models.LedgerEntry{
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		BalanceClass: models.ClassReal,
		Note:         "admin adjustment: " + note,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := appendEntry(tx, &entry); err != nil {
			return err
		}
		return applyUserDelta(tx, userID, amount, 0)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateDraw opens a new pending draw.
func CreateDraw(name string, scheduledAt time.Time) (*models.Draw, error) {
	draw := models.Draw{
		Name:        name,
		ScheduledAt: scheduledAt,
		Status:      models.DrawPending,
	}
	if err := database.DB.Create(&draw).Error; err != nil {
		return nil, err
	}
	return &draw, nil
}
