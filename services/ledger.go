package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

// appendEntry writes one ledger row inside the caller's transaction.
// Appending is the only way monetary state changes; there is no update or
// delete path for ledger rows anywhere in this codebase.
func appendEntry(tx *gorm.DB, e *models.LedgerEntry) error {
	if e.RefID == "" {
		e.RefID = uuid.NewString()
	}
	if err := tx.Create(e).Error; err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}
	return nil
}

// EntriesFor returns a user's ledger in commit order.
func EntriesFor(userID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := database.DB.
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&entries).Error
	return entries, err
}

// adjustBalances applies a delta to the cached balance projection. The
// version predicate plus the non-negative guards make this a compare-and-
// swap: zero rows affected means either a concurrent writer got there
// first or the delta would overdraw.
func adjustBalances(tx *gorm.DB, userID uint, version, realDelta, bonusDelta int64) (bool, error) {
	res := tx.Model(&models.User{}).
		Where("id = ? AND version = ? AND real_balance + ? >= 0 AND bonus_balance + ? >= 0",
			userID, version, realDelta, bonusDelta).
		Updates(map[string]interface{}{
			"real_balance":  gorm.Expr("real_balance + ?", realDelta),
			"bonus_balance": gorm.Expr("bonus_balance + ?", bonusDelta),
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

const casRetries = 5

// applyUserDelta retries the balance CAS against a fresh read of the user
// row. Returns ErrInsufficientFunds once the re-read shows the delta can
// never apply.
func applyUserDelta(tx *gorm.DB, userID uint, realDelta, bonusDelta int64) error {
	for i := 0; i < casRetries; i++ {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrUserNotFound
			}
			return err
		}
		if user.RealBalance+realDelta < 0 || user.BonusBalance+bonusDelta < 0 {
			return ErrInsufficientFunds
		}
		ok, err := adjustBalances(tx, user.ID, user.Version, realDelta, bonusDelta)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("balance update for user %d: too many conflicts", userID)
}
