package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MatchMilhar  = "milhar"  // exact 4-digit match
	MatchCentena = "centena" // 3-digit suffix
	MatchDezena  = "dezena"  // 2-digit suffix
	MatchGrupo   = "grupo"   // animal group (1-25) of the final dezena
)

// GameMode is catalog data: the quota is the payout multiplier, the match
// tag picks the winning predicate. The quota decides how much a win pays,
// never how matching works.
type GameMode struct {
	gorm.Model

	Name     string          `gorm:"uniqueIndex;size:32" json:"name"`
	Quota    decimal.Decimal `gorm:"type:numeric(12,4)" json:"quota"`
	Match    string          `gorm:"size:16" json:"match"`
	IsActive bool            `gorm:"default:true" json:"is_active"`
}
