package models

import "gorm.io/gorm"

const (
	BetOpen = "open"
	BetWon  = "won"
	BetLost = "lost"
)

// Bet is read-only after settlement. The funding split is fixed at
// placement time: FundingReal + FundingBonus == Amount, and FundingBonusID
// names the single bonus the bonus portion was taken from.
type Bet struct {
	gorm.Model

	UserID     uint   `gorm:"index" json:"user_id"`
	DrawID     uint   `gorm:"index" json:"draw_id"`
	GameModeID uint   `gorm:"index" json:"game_mode_id"`
	Selection  string `gorm:"size:8" json:"selection"`

	Amount       int64 `json:"amount"` // centavos
	PotentialWin int64 `json:"potential_win"`

	FundingReal    int64 `json:"funding_real"`
	FundingBonus   int64 `json:"funding_bonus"`
	FundingBonusID *uint `json:"funding_bonus_id,omitempty"`

	Status string `gorm:"size:8;index" json:"status"`
}
