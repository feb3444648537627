package services

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/repository"
)

// The gateway rejects buy orders longer than 26 characters.
const buyOrderMaxLen = 26

// CheckoutResult is returned to the browser from checkout initiation.
type CheckoutResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// CheckoutService creates pending payment transactions and registers them
// with the gateway.
type CheckoutService struct {
	store     repository.PaymentStore
	gateway   WebpayGateway
	returnURL string
}

// NewCheckoutService constructs CheckoutService. returnURL is the absolute
// commit-webhook URL the gateway sends the browser back to.
func NewCheckoutService(store repository.PaymentStore, gateway WebpayGateway, returnURL string) *CheckoutService {
	return &CheckoutService{store: store, gateway: gateway, returnURL: returnURL}
}

// Initiate creates one pending transaction and asks the gateway for a
// payment form URL. Gateway failures are surfaced as a message, never
// retried: re-creating blindly risks a duplicate charge, so retrying is the
// caller's decision.
func (s *CheckoutService) Initiate(ctx context.Context, userID, outingID uuid.UUID, amount int64, activityIDs []string, couponCode string) CheckoutResult {
	if amount <= 0 {
		return CheckoutResult{Message: "amount must be positive"}
	}
	if len(activityIDs) == 0 {
		return CheckoutResult{Message: "at least one activity is required"}
	}
	if s.returnURL == "" {
		// Fail fast instead of guessing a host: a wrong return URL strands
		// the user on the gateway's page.
		return CheckoutResult{Message: "payment return URL is not configured"}
	}

	txn := &models.PaymentTransaction{
		UserID:      userID,
		OutingID:    outingID,
		BuyOrder:    NewBuyOrder(outingID),
		Amount:      amount,
		ActivityIDs: activityIDs,
		CouponCode:  strings.ToUpper(strings.TrimSpace(couponCode)),
		Status:      models.TransactionStatusPending,
	}
	txn.ID = uuid.New()

	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		log.Printf("[Checkout] failed to create transaction for outing %s: %v", outingID, err)
		return CheckoutResult{Message: "could not create payment transaction"}
	}

	created, err := s.gateway.Create(ctx, txn.BuyOrder, txn.ID.String(), amount, s.returnURL)
	if err != nil {
		log.Printf("[Checkout] gateway create failed for transaction %s: %v", txn.ID, err)
		return CheckoutResult{Message: "payment gateway is unavailable"}
	}
	if created.Token == "" || created.URL == "" {
		return CheckoutResult{Message: "payment gateway returned an incomplete response"}
	}

	return CheckoutResult{Success: true, URL: created.URL, Token: created.Token}
}

// NewBuyOrder derives a gateway buy order from the outing id: a truncated
// outing-id prefix, a millisecond timestamp in base36, and a short random
// suffix so two checkouts against outings sharing a prefix cannot collide.
func NewBuyOrder(outingID uuid.UUID) string {
	prefix := strings.ReplaceAll(outingID.String(), "-", "")
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}

	stamp := strconv.FormatInt(time.Now().UnixMilli(), 36)

	// The nonce fills whatever room the cap leaves so two checkouts in the
	// same millisecond cannot produce the same order.
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	if room := buyOrderMaxLen - len(prefix) - len(stamp); room < len(nonce) {
		if room < 1 {
			room = 1
		}
		nonce = nonce[:room]
	}

	order := prefix + stamp + nonce
	if len(order) > buyOrderMaxLen {
		order = order[:buyOrderMaxLen]
	}
	return order
}
