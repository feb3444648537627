package repository

import (
	"context"
	"errors"

	"github.com/example/salidas/internal/models"
)

var (
	// ErrTransactionNotFound is returned when no transaction matches the session id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAlreadyFinalized is returned when a transaction has already left the
	// pending state, so the commit effects must not be applied again.
	ErrAlreadyFinalized = errors.New("transaction already finalized")
	// ErrCouponNotFound is returned when no active coupon matches the code.
	ErrCouponNotFound = errors.New("coupon not found")
)

// PaymentStore is the storage port for the checkout and commit flows. Only
// its finalize methods may move a transaction out of pending.
type PaymentStore interface {
	CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	GetTransaction(ctx context.Context, sessionID string) (*models.PaymentTransaction, error)

	// MarkCancelled moves a pending transaction to cancelled_by_user.
	MarkCancelled(ctx context.Context, sessionID string) error

	// MarkFailed moves a pending transaction to failed and attaches the
	// gateway response.
	MarkFailed(ctx context.Context, sessionID string, gatewayResponse []byte) error

	// FinalizeSuccess applies the full success batch atomically: the
	// transaction becomes successful with the gateway response attached, every
	// listed outing activity is marked paid, and the coupon usage counter is
	// incremented. The status write is conditional on the record still being
	// pending; ErrAlreadyFinalized means a previous invocation won.
	FinalizeSuccess(ctx context.Context, txn *models.PaymentTransaction, gatewayResponse []byte) error

	// GetActiveCouponByCode returns the coupon only when it is active and
	// inside its validity window.
	GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
}
