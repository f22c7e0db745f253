package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	Name     string `gorm:"size:128" json:"name"`
	Document string `gorm:"uniqueIndex;size:32" json:"document"`

	// Cached projection over the ledger, in centavos. RealBalance is
	// withdrawable money, BonusBalance is the sum of remaining_amount over
	// this user's active bonuses. Mutated only together with a ledger
	// append, guarded by Version.
	RealBalance  int64 `json:"real_balance"`
	BonusBalance int64 `json:"bonus_balance"`
	Version      int64 `json:"-"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Bets    []Bet   `gorm:"foreignKey:UserID" json:"-"`
	Bonuses []Bonus `gorm:"foreignKey:UserID" json:"-"`
}
