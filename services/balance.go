package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

type Balances struct {
	Real  int64 `json:"real"`
	Bonus int64 `json:"bonus"`
}

// FundingSplit is the real/bonus composition of one stake, fixed at
// reservation time. BonusID names the single bonus the bonus portion was
// taken from.
type FundingSplit struct {
	RealAmount  int64
	BonusAmount int64
	BonusID     *uint
	RefID       string
}

func CurrentBalances(userID uint) (Balances, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Balances{}, ErrUserNotFound
		}
		return Balances{}, err
	}
	return Balances{Real: user.RealBalance, Bonus: user.BonusBalance}, nil
}

// ProjectBalances folds the user's ledger from zero. Used by
// VerifyProjection and by operators chasing a suspect cache.
func ProjectBalances(userID uint) (Balances, error) {
	entries, err := EntriesFor(userID)
	if err != nil {
		return Balances{}, err
	}
	var b Balances
	for _, e := range entries {
		switch e.BalanceClass {
		case models.ClassReal:
			b.Real += e.Amount
		case models.ClassBonus:
			b.Bonus += e.Amount
		}
	}
	return b, nil
}

// VerifyProjection reconciles the cached balances against the ledger fold.
func VerifyProjection(userID uint) error {
	cached, err := CurrentBalances(userID)
	if err != nil {
		return err
	}
	folded, err := ProjectBalances(userID)
	if err != nil {
		return err
	}
	if cached != folded {
		return fmt.Errorf("balance projection mismatch for user %d: cached %+v, ledger %+v",
			userID, cached, folded)
	}
	return nil
}

// TryReserve is the single atomic check-and-debit used by bet placement.
// Bonus funds are consumed before real funds, but only from one bonus per
// stake so payout and rollover attribution stay unambiguous. Must run
// inside the caller's transaction; on ErrInsufficientFunds nothing was
// written.
func TryReserve(tx *gorm.DB, userID uint, amount int64, allowBonus bool) (FundingSplit, error) {
	if amount <= 0 {
		return FundingSplit{}, fmt.Errorf("reserve amount must be positive, got %d", amount)
	}

	split := FundingSplit{RealAmount: amount, RefID: uuid.NewString()}

	if allowBonus {
		// Bonuses whose rollover is already met get reclassified before
		// being spent any further.
		if err := completeMatureBonuses(tx, userID); err != nil {
			return FundingSplit{}, err
		}

		bonus, err := pickFundingBonus(tx, userID, amount)
		if err != nil {
			return FundingSplit{}, err
		}
		if bonus != nil {
			split.BonusAmount = min64(bonus.RemainingAmount, amount)
			split.RealAmount = amount - split.BonusAmount
			split.BonusID = &bonus.ID
		}
	}

	if split.BonusAmount > 0 {
		// Take the bonus portion out of the bonus row first; the guard on
		// remaining_amount keeps two concurrent reservations from both
		// draining the same funds.
		res := tx.Model(&models.Bonus{}).
			Where("id = ? AND status = ? AND remaining_amount >= ?",
				*split.BonusID, models.BonusActive, split.BonusAmount).
			Update("remaining_amount", gorm.Expr("remaining_amount - ?", split.BonusAmount))
		if res.Error != nil {
			return FundingSplit{}, res.Error
		}
		if res.RowsAffected == 0 {
			return FundingSplit{}, ErrInsufficientFunds
		}
	}

	if err := applyUserDelta(tx, userID, -split.RealAmount, -split.BonusAmount); err != nil {
		return FundingSplit{}, err
	}

	if split.RealAmount > 0 {
		if err := appendEntry(tx, &models.LedgerEntry{
			UserID:       userID,
			Kind:         models.LedgerBetDebit,
			Amount:       -split.RealAmount,
			BalanceClass: models.ClassReal,
			RefID:        split.RefID,
		}); err != nil {
			return FundingSplit{}, err
		}
	}
	if split.BonusAmount > 0 {
		if err := appendEntry(tx, &models.LedgerEntry{
			UserID:       userID,
			Kind:         models.LedgerBetDebit,
			Amount:       -split.BonusAmount,
			BalanceClass: models.ClassBonus,
			BonusID:      split.BonusID,
			RefID:        split.RefID,
		}); err != nil {
			return FundingSplit{}, err
		}
	}

	return split, nil
}

// pickFundingBonus chooses the earliest-expiring active bonus that, together
// with the real balance, covers the stake. Returns nil when the stake should
// be funded with real money only.
func pickFundingBonus(tx *gorm.DB, userID uint, amount int64) (*models.Bonus, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var bonuses []models.Bonus
	err := tx.Where("user_id = ? AND status = ? AND remaining_amount > 0 AND expires_at > ?",
		userID, models.BonusActive, time.Now()).
		Order("expires_at asc").
		Find(&bonuses).Error
	if err != nil {
		return nil, err
	}

	for i := range bonuses {
		if user.RealBalance+min64(bonuses[i].RemainingAmount, amount) >= amount {
			return &bonuses[i], nil
		}
	}
	return nil, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
