package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/repository"
)

// CouponResult is the outcome of applying a coupon to a subtotal.
type CouponResult struct {
	Success        bool    `json:"success"`
	DiscountAmount float64 `json:"discount_amount"`
	Message        string  `json:"message"`
}

// CouponService evaluates discount codes. It only reads coupons; the usage
// counter is incremented by the payment commit flow.
type CouponService struct {
	store repository.PaymentStore
}

// NewCouponService constructs CouponService.
func NewCouponService(store repository.PaymentStore) *CouponService {
	return &CouponService{store: store}
}

// ApplyCoupon validates a code against the subtotal and computes the
// discount. Expired and inactive codes are filtered out by the lookup itself.
func (s *CouponService) ApplyCoupon(ctx context.Context, code string, subtotal float64) CouponResult {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return CouponResult{Message: "coupon code is required"}
	}
	if subtotal <= 0 {
		return CouponResult{Message: "subtotal must be positive"}
	}

	coupon, err := s.store.GetActiveCouponByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return CouponResult{Message: "coupon is invalid or expired"}
		}
		log.Printf("[Coupon] lookup failed for %s: %v", normalized, err)
		return CouponResult{Message: "could not validate coupon"}
	}

	if coupon.TimesUsed >= coupon.MaxUses {
		return CouponResult{Message: "coupon usage limit reached"}
	}

	var discount float64
	switch coupon.DiscountType {
	case models.CouponTypePercentage:
		discount = subtotal * coupon.DiscountValue / 100
	case models.CouponTypeFixed:
		discount = coupon.DiscountValue
	default:
		return CouponResult{Message: "coupon has an unknown discount type"}
	}

	// A coupon may never push the payable amount below zero.
	if discount > subtotal {
		discount = subtotal
	}

	return CouponResult{Success: true, DiscountAmount: discount, Message: "coupon applied"}
}
