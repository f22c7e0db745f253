package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BonusSignup       = "signup"
	BonusFirstDeposit = "first_deposit"
)

const (
	BonusActive    = "active"
	BonusCompleted = "completed"
	BonusExpired   = "expired"
)

// Bonus is a promotional credit with a wagering requirement. The unique
// index on (user_id, bonus_type) means a user gets each bonus type at most
// once, even under concurrent duplicate deposit notifications.
type Bonus struct {
	gorm.Model

	UserID    uint   `gorm:"index;uniqueIndex:idx_user_bonus_type" json:"user_id"`
	BonusType string `gorm:"size:16;uniqueIndex:idx_user_bonus_type" json:"bonus_type"`

	Amount              int64 `json:"amount"`           // centavos granted (plus bonus winnings)
	RemainingAmount     int64 `json:"remaining_amount"` // 0 <= remaining <= amount
	RolloverRequirement int64 `json:"rollover_requirement"`
	RolloverProgress    int64 `json:"rollover_progress"` // <= rollover_requirement

	Status    string    `gorm:"size:16;index" json:"status"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`

	RelatedTransactionID *uint `json:"related_transaction_id,omitempty"`
}
