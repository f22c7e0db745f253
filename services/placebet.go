package services

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// PlaceBet validates the draw and selection, reserves the stake through
// the balance projector and persists the bet with its funding split. The
// split is recorded once here and never recomputed.
func PlaceBet(userID, drawID uint, gameModeName, selection string, amount int64) (*models.Bet, error) {
	var mode models.GameMode
	err := database.DB.Where("name = ? AND is_active = ?", gameModeName, true).First(&mode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownGameMode
		}
		return nil, err
	}
	if err := ValidateSelection(mode.Match, selection); err != nil {
		return nil, err
	}

	potentialWin := mode.Quota.Mul(decimal.NewFromInt(amount)).Round(0).IntPart()

	var bet *models.Bet
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// The version bump takes the draw row's write lock, so the
		// pending->settled transition serializes against this transaction:
		// either it waits for the bet to commit and the settlement sweep
		// sees it, or it already ran and the status predicate fails here.
		res := tx.Model(&models.Draw{}).
			Where("id = ? AND status = ?", drawID, models.DrawPending).
			Update("version", gorm.Expr("version + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDrawClosed
		}

		split, err := TryReserve(tx, userID, amount, true)
		if err != nil {
			return err
		}

		bet = &models.Bet{
			UserID:         userID,
			DrawID:         drawID,
			GameModeID:     mode.ID,
			Selection:      selection,
			Amount:         amount,
			PotentialWin:   potentialWin,
			FundingReal:    split.RealAmount,
			FundingBonus:   split.BonusAmount,
			FundingBonusID: split.BonusID,
			Status:         models.BetOpen,
		}
		return tx.Create(bet).Error
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// ValidateSelection checks the selection shape for a match rule: milhar 4
// digits, centena 3, dezena 2, grupo a number 1-25.
func ValidateSelection(match, selection string) error {
	switch match {
	case models.MatchMilhar:
		if len(selection) == 4 && digitsOnly.MatchString(selection) {
			return nil
		}
	case models.MatchCentena:
		if len(selection) == 3 && digitsOnly.MatchString(selection) {
			return nil
		}
	case models.MatchDezena:
		if len(selection) == 2 && digitsOnly.MatchString(selection) {
			return nil
		}
	case models.MatchGrupo:
		g, err := strconv.Atoi(selection)
		if err == nil && g >= 1 && g <= 25 {
			return nil
		}
	}
	return ErrInvalidSelection
}

// BetsFor lists a user's bets, newest first.
func BetsFor(userID uint) ([]models.Bet, error) {
	var bets []models.Bet
	err := database.DB.
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&bets).Error
	return bets, err
}
