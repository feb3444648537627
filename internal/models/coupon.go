package models

import "time"

// Coupon discount types.
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// Coupon is a discount code redeemable at checkout. TimesUsed is incremented
// only when a payment reaches successful and never exceeds MaxUses.
type Coupon struct {
	BaseModel
	Code          string    `gorm:"uniqueIndex" json:"code"`
	Description   string    `json:"description"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue float64   `json:"discount_value"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
	IsActive      bool      `json:"is_active"`
	MaxUses       int       `json:"max_uses"`
	TimesUsed     int       `json:"times_used"`
}
