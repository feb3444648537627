package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Payment transaction statuses. A transaction starts pending and reaches at
// most one terminal state, written only by the commit webhook flow.
const (
	TransactionStatusPending         = "pending"
	TransactionStatusSuccessful      = "successful"
	TransactionStatusFailed          = "failed"
	TransactionStatusCancelledByUser = "cancelled_by_user"
)

// PaymentTransaction stores one checkout attempt. The record id doubles as
// the gateway session id.
type PaymentTransaction struct {
	BaseModel
	UserID          uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	OutingID        uuid.UUID      `gorm:"type:uuid;index" json:"outing_id"`
	BuyOrder        string         `gorm:"index" json:"buy_order"`
	Amount          int64          `json:"amount"`
	ActivityIDs     pq.StringArray `gorm:"type:text[]" json:"activity_ids"`
	CouponCode      string         `json:"coupon_code"`
	Status          string         `gorm:"index" json:"status"`
	GatewayResponse []byte         `gorm:"type:jsonb" json:"gateway_response"`
}
