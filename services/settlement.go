package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

// SettleDraw resolves every open bet on a draw against its result, exactly
// once. The pending->settled conditional update on the draw row is the
// settlement lock: the caller that loses the race gets
// ErrDrawAlreadySettled and has nothing to do, which also makes result
// redelivery a no-op. Individual bets are independent and settle in
// parallel, each guarded by its own open->won|lost transition.
func SettleDraw(drawID uint, result string, workers int) error {
	if len(result) != 4 || !digitsOnly.MatchString(result) {
		return ErrInvalidResult
	}
	if workers < 1 {
		workers = 1
	}

	res := database.DB.Model(&models.Draw{}).
		Where("id = ? AND status = ?", drawID, models.DrawPending).
		Updates(map[string]interface{}{
			"status": models.DrawSettled,
			"result": result,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var draw models.Draw
		if err := database.DB.First(&draw, drawID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownDraw
			}
			return err
		}
		// A settled draw can still carry open bets if an earlier settlement
		// crashed midway; finishing them here is safe because every bet has
		// its own once-only transition.
		if draw.Status == models.DrawSettled && draw.Result != nil {
			if err := settleOpenBets(drawID, *draw.Result, workers); err != nil {
				return err
			}
		}
		return ErrDrawAlreadySettled
	}

	return settleOpenBets(drawID, result, workers)
}

func settleOpenBets(drawID uint, result string, workers int) error {
	var bets []models.Bet
	err := database.DB.
		Where("draw_id = ? AND status = ?", drawID, models.BetOpen).
		Find(&bets).Error
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range bets {
		bet := bets[i]
		g.Go(func() error {
			if err := settleBet(&bet, result); err != nil {
				if errors.Is(err, ErrBetAlreadySettled) {
					return nil
				}
				log.Printf("❌ settle bet %d (draw %d): %v", bet.ID, drawID, err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// settleBet resolves one bet. Win or lose, the bonus portion of the stake
// advances the funding bonus' rollover. On a win the payout is split in
// the stake's proportions: the bonus-funded share goes back onto the same
// bonus and so inherits its remaining wagering obligation.
func settleBet(bet *models.Bet, result string) error {
	var mode models.GameMode
	if err := database.DB.First(&mode, bet.GameModeID).Error; err != nil {
		return err
	}

	won := Matches(mode.Match, bet.Selection, result)
	status := models.BetLost
	if won {
		status = models.BetWon
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Bet{}).
			Where("id = ? AND status = ?", bet.ID, models.BetOpen).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBetAlreadySettled
		}

		if won {
			if err := creditWin(tx, bet); err != nil {
				return err
			}
		}

		if bet.FundingBonusID != nil {
			return AdvanceRollover(tx, *bet.FundingBonusID, bet.FundingBonus)
		}
		return nil
	})
}

// creditWin pays out PotentialWin, split in the stake's real/bonus
// proportions. A bonus share whose bonus is no longer active falls back to
// the real balance; the wagering obligation it would have inherited died
// with the bonus.
func creditWin(tx *gorm.DB, bet *models.Bet) error {
	realCredit := bet.PotentialWin
	bonusCredit := int64(0)
	if bet.FundingBonus > 0 && bet.FundingBonusID != nil {
		realCredit = bet.PotentialWin * bet.FundingReal / bet.Amount
		bonusCredit = bet.PotentialWin - realCredit
	}

	if bonusCredit > 0 {
		// Raise remaining and the amount ceiling together so
		// remaining <= amount keeps holding for bonus winnings.
		res := tx.Model(&models.Bonus{}).
			Where("id = ? AND status = ?", *bet.FundingBonusID, models.BonusActive).
			Updates(map[string]interface{}{
				"remaining_amount": gorm.Expr("remaining_amount + ?", bonusCredit),
				"amount":           gorm.Expr("amount + ?", bonusCredit),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			realCredit += bonusCredit
			bonusCredit = 0
		}
	}

	ref := uuid.NewString()
	betID := bet.ID
	if realCredit > 0 {
		if err := appendEntry(tx, &models.LedgerEntry{
			UserID:       bet.UserID,
			Kind:         models.LedgerBetCredit,
			Amount:       realCredit,
			BalanceClass: models.ClassReal,
			RefID:        ref,
			Note:         "winnings for bet " + strconv.FormatUint(uint64(betID), 10),
		}); err != nil {
			return err
		}
	}
	if bonusCredit > 0 {
		if err := appendEntry(tx, &models.LedgerEntry{
			UserID:       bet.UserID,
			Kind:         models.LedgerBetCredit,
			Amount:       bonusCredit,
			BalanceClass: models.ClassBonus,
			BonusID:      bet.FundingBonusID,
			RefID:        ref,
			Note:         "winnings for bet " + strconv.FormatUint(uint64(betID), 10),
		}); err != nil {
			return err
		}
	}

	return applyUserDelta(tx, bet.UserID, realCredit, bonusCredit)
}

// Matches decides a bet against a 4-digit result. The quota never changes
// matching; each rule has its own predicate.
func Matches(match, selection, result string) bool {
	switch match {
	case models.MatchMilhar:
		return selection == result
	case models.MatchCentena:
		return selection == result[1:]
	case models.MatchDezena:
		return selection == result[2:]
	case models.MatchGrupo:
		g, err := strconv.Atoi(selection)
		if err != nil {
			return false
		}
		return g == GroupOf(result)
	}
	return false
}

// GroupOf maps the final dezena of a result to its animal group 1-25:
// four dezenas per group, with dezena 00 counting as 100 (group 25).
func GroupOf(result string) int {
	d, err := strconv.Atoi(result[2:])
	if err != nil {
		return 0
	}
	if d == 0 {
		d = 100
	}
	return (d + 3) / 4
}

// ResettleCheck is an operator aid: it re-evaluates a settled draw's bets
// without writing anything and reports bets whose stored status disagrees
// with the result. Repairs still go through the ledger, never here.
func ResettleCheck(drawID uint) ([]uint, error) {
	var draw models.Draw
	if err := database.DB.First(&draw, drawID).Error; err != nil {
		return nil, err
	}
	if draw.Status != models.DrawSettled || draw.Result == nil {
		return nil, fmt.Errorf("draw %d is not settled", drawID)
	}

	var bets []models.Bet
	if err := database.DB.Where("draw_id = ?", drawID).Find(&bets).Error; err != nil {
		return nil, err
	}

	var suspect []uint
	for i := range bets {
		var mode models.GameMode
		if err := database.DB.First(&mode, bets[i].GameModeID).Error; err != nil {
			return nil, err
		}
		want := models.BetLost
		if Matches(mode.Match, bets[i].Selection, *draw.Result) {
			want = models.BetWon
		}
		if bets[i].Status != want {
			suspect = append(suspect, bets[i].ID)
		}
	}
	return suspect, nil
}
