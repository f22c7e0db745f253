package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentDeposit    = "deposit"
	PaymentWithdrawal = "withdrawal"
)

const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// PaymentTransaction mirrors one external payment event. The composite
// unique index on (gateway_id, external_id) is the idempotency key that
// makes redelivered notifications a no-op.
type PaymentTransaction struct {
	gorm.Model

	UserID  uint   `gorm:"index" json:"user_id"`
	Amount  int64  `json:"amount"` // centavos
	TrxType string `gorm:"size:16;index" json:"trx_type"`
	Status  string `gorm:"size:16;index" json:"status"`

	GatewayID  string `gorm:"size:32;uniqueIndex:idx_gateway_external" json:"gateway_id"`
	ExternalID string `gorm:"size:64;uniqueIndex:idx_gateway_external" json:"external_id"`

	RawPayload datatypes.JSON `gorm:"type:jsonb" json:"-"`
}
