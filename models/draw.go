package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DrawPending = "pending"
	DrawSettled = "settled"
)

// Draw is one lottery round. Result is a 4-digit string, set exactly once
// by the pending->settled transition.
type Draw struct {
	gorm.Model

	Name        string    `gorm:"size:64" json:"name"`
	ScheduledAt time.Time `gorm:"index" json:"scheduled_at"`
	Status      string    `gorm:"size:16;index" json:"status"`
	Result      *string   `gorm:"size:8" json:"result,omitempty"`
	Version     int64     `gorm:"not null;default:0" json:"-"`

	Bets []Bet `gorm:"foreignKey:DrawID" json:"-"`
}
