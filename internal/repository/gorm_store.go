package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/models"
)

// GormPaymentStore implements PaymentStore on top of gorm/Postgres.
type GormPaymentStore struct {
	db *gorm.DB
}

// NewGormPaymentStore constructs GormPaymentStore.
func NewGormPaymentStore(db *gorm.DB) *GormPaymentStore {
	return &GormPaymentStore{db: db}
}

func (s *GormPaymentStore) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

func (s *GormPaymentStore) GetTransaction(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, ErrTransactionNotFound
	}

	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (s *GormPaymentStore) MarkCancelled(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrTransactionNotFound
	}

	res := s.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Update("status", models.TransactionStatusCancelledByUser)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (s *GormPaymentStore) MarkFailed(ctx context.Context, sessionID string, gatewayResponse []byte) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrTransactionNotFound
	}

	res := s.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(map[string]any{
			"status":           models.TransactionStatusFailed,
			"gateway_response": gatewayResponse,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (s *GormPaymentStore) FinalizeSuccess(ctx context.Context, txn *models.PaymentTransaction, gatewayResponse []byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
			Updates(map[string]any{
				"status":           models.TransactionStatusSuccessful,
				"gateway_response": gatewayResponse,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyFinalized
		}

		activityIDs := make([]uuid.UUID, 0, len(txn.ActivityIDs))
		for _, raw := range txn.ActivityIDs {
			if id, err := uuid.Parse(raw); err == nil {
				activityIDs = append(activityIDs, id)
			}
		}
		if len(activityIDs) > 0 {
			if err := tx.Model(&models.OutingActivity{}).
				Where("outing_id = ? AND id IN ?", txn.OutingID, activityIDs).
				Update("paid", true).Error; err != nil {
				return err
			}
		}

		if txn.CouponCode != "" {
			res := tx.Model(&models.Coupon{}).
				Where("code = ? AND times_used < max_uses", txn.CouponCode).
				UpdateColumn("times_used", gorm.Expr("times_used + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				log.Printf("[Payment] coupon %s not incremented for transaction %s (missing or exhausted)", txn.CouponCode, txn.ID)
			}
		}

		return nil
	})
}

func (s *GormPaymentStore) GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	now := time.Now()

	var coupon models.Coupon
	if err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ? AND valid_from <= ? AND valid_to >= ?", code, true, now, now).
		First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}
