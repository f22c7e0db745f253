package models

import "gorm.io/gorm"

const (
	LedgerDeposit      = "deposit"
	LedgerWithdrawal   = "withdrawal"
	LedgerBetDebit     = "bet_debit"
	LedgerBetCredit    = "bet_credit"
	LedgerBonusGrant   = "bonus_grant"
	LedgerBonusConsume = "bonus_consume"
	LedgerBonusExpire  = "bonus_expire"
)

const (
	ClassReal  = "real"
	ClassBonus = "bonus"
)

// LedgerEntry is the append-only record of every monetary event. Entries are
// never updated or deleted; balances are a fold over them. Entries belonging
// to one economic action share a RefID.
type LedgerEntry struct {
	gorm.Model

	UserID       uint   `gorm:"index" json:"user_id"`
	Kind         string `gorm:"size:16;index" json:"kind"`
	Amount       int64  `json:"amount"` // signed centavos
	BalanceClass string `gorm:"size:8" json:"balance_class"`

	BonusID              *uint  `gorm:"index" json:"bonus_id,omitempty"`
	RelatedTransactionID *uint  `gorm:"index" json:"related_transaction_id,omitempty"`
	RefID                string `gorm:"size:64;index" json:"ref_id"`
	Note                 string `gorm:"size:255" json:"note"`
}
