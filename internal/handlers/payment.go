package handlers

import (
	"errors"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/middleware"
	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/repository"
	"github.com/example/salidas/internal/services"
	"github.com/example/salidas/internal/utils"
)

// Redirect reasons surfaced on the frontend error page.
const (
	reasonCancelled       = "cancelled"
	reasonCommitFailed    = "commit_failed"
	reasonCommitException = "commit_exception"
	reasonSessionNotFound = "session_not_found"
	reasonInvalidRequest  = "invalid_request"
)

// PaymentHandler manages checkout initiation and the gateway's commit webhook.
type PaymentHandler struct {
	db          *gorm.DB
	store       repository.PaymentStore
	gateway     services.WebpayGateway
	checkout    *services.CheckoutService
	telegram    *services.TelegramService
	frontendURL string
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, store repository.PaymentStore, gateway services.WebpayGateway, checkout *services.CheckoutService, telegram *services.TelegramService, frontendURL string) *PaymentHandler {
	return &PaymentHandler{
		db:          db,
		store:       store,
		gateway:     gateway,
		checkout:    checkout,
		telegram:    telegram,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

type checkoutRequest struct {
	Amount      int64    `json:"amount"`
	OutingID    string   `json:"outing_id"`
	ActivityIDs []string `json:"activity_ids"`
	CouponCode  string   `json:"coupon_code"`
}

// Checkout creates a pending transaction and returns the gateway form URL.
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	outingID, err := uuid.Parse(req.OutingID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid outing_id")
	}

	var outing models.Outing
	if err := h.db.First(&outing, "id = ? AND user_id = ?", outingID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "outing not found")
		}
		return err
	}

	result := h.checkout.Initiate(c.Context(), userID, outingID, req.Amount, req.ActivityIDs, req.CouponCode)
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}
	return c.JSON(result)
}

// Commit is the gateway's return webhook. The browser may arrive with GET or
// POST; parameters are read from the form body first, then the query string.
// Every failure converts into a redirect to the frontend error page.
func (h *PaymentHandler) Commit(c *fiber.Ctx) error {
	tokenWS := formOrQuery(c, "token_ws")
	tbkToken := formOrQuery(c, "TBK_TOKEN")
	tbkOrder := formOrQuery(c, "TBK_ORDEN_COMPRA")
	tbkSession := formOrQuery(c, "TBK_ID_SESION")

	// TBK_TOKEN without token_ws means the user aborted on the gateway page.
	if tbkToken != "" && tokenWS == "" {
		if tbkSession != "" {
			if err := h.store.MarkCancelled(c.Context(), tbkSession); err != nil {
				log.Printf("[Payment] could not mark session %s cancelled: %v", tbkSession, err)
			}
		}
		return h.redirectError(c, reasonCancelled, tbkOrder)
	}

	if tokenWS == "" {
		return h.redirectError(c, reasonInvalidRequest, "")
	}

	commit, err := h.gateway.Commit(c.Context(), tokenWS)
	if err != nil {
		// A consumed token cannot be committed again, so there is no retry.
		log.Printf("[Payment] gateway commit failed: %v", err)
		return h.redirectError(c, reasonCommitException, "")
	}

	if !commit.Authorized() {
		if err := h.store.MarkFailed(c.Context(), commit.SessionID, commit.Raw); err != nil {
			log.Printf("[Payment] could not mark session %s failed: %v", commit.SessionID, err)
		}
		return h.redirectError(c, reasonCommitFailed, commit.BuyOrder)
	}

	txn, err := h.store.GetTransaction(c.Context(), commit.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			// Authorized payment with no local record is a data-integrity
			// signal, kept distinct from ordinary payment failure.
			log.Printf("[Payment] authorized commit for unknown session %s (order %s)", commit.SessionID, commit.BuyOrder)
			return h.redirectError(c, reasonSessionNotFound, commit.BuyOrder)
		}
		log.Printf("[Payment] transaction lookup failed for session %s: %v", commit.SessionID, err)
		return h.redirectError(c, reasonCommitException, commit.BuyOrder)
	}

	err = h.store.FinalizeSuccess(c.Context(), txn, commit.Raw)
	switch {
	case errors.Is(err, repository.ErrAlreadyFinalized):
		// Replayed browser request: effects were applied exactly once by the
		// earlier invocation, so just land the user on the success page.
		return h.redirectSuccess(c, txn)
	case err != nil:
		log.Printf("[Payment] finalize failed for session %s: %v", commit.SessionID, err)
		return h.redirectError(c, reasonCommitException, commit.BuyOrder)
	}

	if h.telegram != nil {
		notification := services.PaymentSuccessNotification{
			BuyOrder:   txn.BuyOrder,
			OutingID:   txn.OutingID.String(),
			Amount:     txn.Amount,
			Activities: len(txn.ActivityIDs),
			Coupon:     txn.CouponCode,
		}
		go func() {
			if err := h.telegram.NotifyPaymentSuccess(notification); err != nil {
				log.Printf("[Payment] Telegram payment notification failed: %v", err)
			}
		}()
	}

	return h.redirectSuccess(c, txn)
}

// ListTransactions returns payment history for admins, optionally filtered.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.PaymentTransaction{})

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
		}
		query = query.Where("user_id = ?", parsed)
	}
	if order := strings.TrimSpace(c.Query("order")); order != "" {
		query = query.Where("buy_order = ?", order)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var txns []models.PaymentTransaction
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&txns).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    txns,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

func (h *PaymentHandler) redirectSuccess(c *fiber.Ctx, txn *models.PaymentTransaction) error {
	params := url.Values{}
	params.Set("order", txn.BuyOrder)
	params.Set("amount", strconv.FormatInt(txn.Amount, 10))
	params.Set("salidaId", txn.OutingID.String())
	return c.Redirect(h.frontendURL+"/payment/success?"+params.Encode(), fiber.StatusFound)
}

func (h *PaymentHandler) redirectError(c *fiber.Ctx, reason, order string) error {
	params := url.Values{}
	params.Set("reason", reason)
	if order != "" {
		params.Set("order", order)
	}
	return c.Redirect(h.frontendURL+"/payment/error?"+params.Encode(), fiber.StatusFound)
}

// formOrQuery reads a webhook parameter, form body taking precedence over the
// query string.
func formOrQuery(c *fiber.Ctx, key string) string {
	if v := string(c.Request().PostArgs().Peek(key)); v != "" {
		return v
	}
	return c.Query(key)
}
