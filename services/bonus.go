package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novobicho/config"
	"novobicho/database"
	"novobicho/models"
)

// GrantSignupBonus creates the signup bonus inside the registration
// transaction. The (user_id, bonus_type) unique index turns a double grant
// into ErrBonusAlreadyGranted.
func GrantSignupBonus(tx *gorm.DB, userID uint, cfg config.Config) (*models.Bonus, error) {
	if !cfg.SignupBonusEnabled || cfg.SignupBonusAmount <= 0 {
		return nil, nil
	}
	return grantBonus(tx, &models.Bonus{
		UserID:              userID,
		BonusType:           models.BonusSignup,
		Amount:              cfg.SignupBonusAmount,
		RemainingAmount:     cfg.SignupBonusAmount,
		RolloverRequirement: cfg.SignupBonusAmount * cfg.SignupRollover,
		Status:              models.BonusActive,
		ExpiresAt:           time.Now().AddDate(0, 0, cfg.SignupExpirationDays),
	})
}

// GrantFirstDepositBonus is invoked by the deposit processor on a user's
// first approved deposit. amount = min(deposit * percent / 100, max).
func GrantFirstDepositBonus(tx *gorm.DB, userID uint, depositAmount int64, paymentTxID uint, cfg config.Config) (*models.Bonus, error) {
	if !cfg.FirstDepositEnabled {
		return nil, nil
	}
	amount := depositAmount * cfg.FirstDepositPercent / 100
	if amount > cfg.FirstDepositMax {
		amount = cfg.FirstDepositMax
	}
	if amount <= 0 {
		return nil, nil
	}
	return grantBonus(tx, &models.Bonus{
		UserID:               userID,
		BonusType:            models.BonusFirstDeposit,
		Amount:               amount,
		RemainingAmount:      amount,
		RolloverRequirement:  amount * cfg.FirstDepositRollover,
		Status:               models.BonusActive,
		ExpiresAt:            time.Now().AddDate(0, 0, cfg.FirstDepositExpirationDays),
		RelatedTransactionID: &paymentTxID,
	})
}

func grantBonus(tx *gorm.DB, bonus *models.Bonus) (*models.Bonus, error) {
	if err := tx.Create(bonus).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBonusAlreadyGranted
		}
		return nil, fmt.Errorf("grant %s bonus: %w", bonus.BonusType, err)
	}
	if err := appendEntry(tx, &models.LedgerEntry{
		UserID:               bonus.UserID,
		Kind:                 models.LedgerBonusGrant,
		Amount:               bonus.Amount,
		BalanceClass:         models.ClassBonus,
		BonusID:              &bonus.ID,
		RelatedTransactionID: bonus.RelatedTransactionID,
		Note:                 bonus.BonusType + " bonus granted",
	}); err != nil {
		return nil, err
	}
	if err := applyUserDelta(tx, bonus.UserID, 0, bonus.Amount); err != nil {
		return nil, err
	}
	return bonus, nil
}

// AdvanceRollover credits wagered bonus money against the funding bonus'
// requirement, clamped so progress never passes the requirement, then
// completes the bonus if the requirement is met.
func AdvanceRollover(tx *gorm.DB, bonusID uint, wagered int64) error {
	if wagered <= 0 {
		return nil
	}

	res := tx.Model(&models.Bonus{}).
		Where("id = ? AND status = ? AND rollover_progress + ? <= rollover_requirement",
			bonusID, models.BonusActive, wagered).
		Update("rollover_progress", gorm.Expr("rollover_progress + ?", wagered))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Clamp to the requirement instead of overshooting.
		res = tx.Model(&models.Bonus{}).
			Where("id = ? AND status = ? AND rollover_progress < rollover_requirement",
				bonusID, models.BonusActive).
			Update("rollover_progress", gorm.Expr("rollover_requirement"))
		if res.Error != nil {
			return res.Error
		}
	}

	var bonus models.Bonus
	if err := tx.First(&bonus, bonusID).Error; err != nil {
		return err
	}
	if bonus.Status == models.BonusActive && bonus.RolloverProgress >= bonus.RolloverRequirement {
		return completeBonus(tx, &bonus)
	}
	return nil
}

// completeBonus reclassifies a bonus whose wagering requirement is met:
// the remaining amount moves from the bonus class to the real class via a
// bonus_consume / deposit entry pair sharing one ref, net zero overall.
func completeBonus(tx *gorm.DB, bonus *models.Bonus) error {
	for i := 0; ; i++ {
		// The predicate on remaining_amount pins the value we are about to
		// reclassify against concurrent reservations.
		res := tx.Model(&models.Bonus{}).
			Where("id = ? AND status = ? AND remaining_amount = ?",
				bonus.ID, models.BonusActive, bonus.RemainingAmount).
			Updates(map[string]interface{}{
				"status":           models.BonusCompleted,
				"remaining_amount": 0,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			break
		}
		if i == casRetries {
			return fmt.Errorf("complete bonus %d: too many conflicts", bonus.ID)
		}
		if err := tx.First(bonus, bonus.ID).Error; err != nil {
			return err
		}
		if bonus.Status != models.BonusActive {
			// Lost the transition race; the winner did the reclassification.
			return nil
		}
	}

	if bonus.RemainingAmount == 0 {
		return nil
	}
	ref := uuid.NewString()
	if err := appendEntry(tx, &models.LedgerEntry{
		UserID:       bonus.UserID,
		Kind:         models.LedgerBonusConsume,
		Amount:       -bonus.RemainingAmount,
		BalanceClass: models.ClassBonus,
		BonusID:      &bonus.ID,
		RefID:        ref,
		Note:         "rollover met, bonus released",
	}); err != nil {
		return err
	}
	if err := appendEntry(tx, &models.LedgerEntry{
		UserID:       bonus.UserID,
		Kind:         models.LedgerDeposit,
		Amount:       bonus.RemainingAmount,
		BalanceClass: models.ClassReal,
		BonusID:      &bonus.ID,
		RefID:        ref,
		Note:         "rollover met, bonus released",
	}); err != nil {
		return err
	}
	return applyUserDelta(tx, bonus.UserID, bonus.RemainingAmount, -bonus.RemainingAmount)
}

// completeMatureBonuses releases any of the user's bonuses whose rollover
// is already met. Called before funds are reserved against them.
func completeMatureBonuses(tx *gorm.DB, userID uint) error {
	var mature []models.Bonus
	err := tx.Where("user_id = ? AND status = ? AND rollover_progress >= rollover_requirement",
		userID, models.BonusActive).
		Find(&mature).Error
	if err != nil {
		return err
	}
	for i := range mature {
		if err := completeBonus(tx, &mature[i]); err != nil {
			return err
		}
	}
	return nil
}

// ExpireBonuses forfeits every active bonus past its expiry. Each bonus is
// swept in its own transaction; the active->expired transition is the
// exactly-once guard.
func ExpireBonuses(now time.Time) (int, error) {
	var due []models.Bonus
	err := database.DB.
		Where("status = ? AND expires_at <= ?", models.BonusActive, now).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		bonus := due[i]
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			// Pin remaining_amount so the forfeit matches exactly what the
			// transition zeroes; a win landing on the bonus between the
			// snapshot and here would otherwise leave its credit stranded
			// in the cached bonus balance.
			for attempt := 0; ; attempt++ {
				res := tx.Model(&models.Bonus{}).
					Where("id = ? AND status = ? AND remaining_amount = ?",
						bonus.ID, models.BonusActive, bonus.RemainingAmount).
					Updates(map[string]interface{}{
						"status":           models.BonusExpired,
						"remaining_amount": 0,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 1 {
					break
				}
				if attempt == casRetries {
					return fmt.Errorf("expire bonus %d: too many conflicts", bonus.ID)
				}
				if err := tx.First(&bonus, bonus.ID).Error; err != nil {
					return err
				}
				if bonus.Status != models.BonusActive {
					return nil
				}
			}
			if bonus.RemainingAmount > 0 {
				if err := appendEntry(tx, &models.LedgerEntry{
					UserID:       bonus.UserID,
					Kind:         models.LedgerBonusExpire,
					Amount:       -bonus.RemainingAmount,
					BalanceClass: models.ClassBonus,
					BonusID:      &bonus.ID,
					Note:         "bonus expired, funds forfeited",
				}); err != nil {
					return err
				}
				if err := applyUserDelta(tx, bonus.UserID, 0, -bonus.RemainingAmount); err != nil {
					return err
				}
			}
			expired++
			return nil
		})
		if err != nil {
			log.Printf("❌ expire bonus %d: %v", bonus.ID, err)
			return expired, err
		}
	}
	return expired, nil
}

// BonusSummary lists a user's bonuses, newest first.
func BonusSummary(userID uint) ([]models.Bonus, error) {
	var bonuses []models.Bonus
	err := database.DB.
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&bonuses).Error
	return bonuses, err
}
