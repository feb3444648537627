package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/services"
	"github.com/example/salidas/internal/utils"
)

// CouponHandler manages coupon administration and application.
type CouponHandler struct {
	db      *gorm.DB
	coupons *services.CouponService
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(db *gorm.DB, coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{db: db, coupons: coupons}
}

type applyCouponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// ApplyCoupon evaluates a coupon against a subtotal at checkout time.
func (h *CouponHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req applyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result := h.coupons.ApplyCoupon(c.Context(), req.Code, req.Subtotal)
	return c.JSON(result)
}

// ListCoupons returns coupons for administration.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return err
	}

	var items []models.Coupon
	if err := h.db.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// CreateCoupon adds a coupon (admin). Codes are stored upper-cased.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var item models.Coupon
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	if item.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if item.DiscountType != models.CouponTypePercentage && item.DiscountType != models.CouponTypeFixed {
		return fiber.NewError(fiber.StatusBadRequest, "discount_type must be percentage or fixed")
	}
	if item.DiscountValue <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "discount_value must be positive")
	}
	if item.MaxUses <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "max_uses must be positive")
	}
	item.TimesUsed = 0

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateCoupon modifies a coupon (admin). TimesUsed is never written here;
// only the payment commit flow increments it.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Coupon
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}

	timesUsed := item.TimesUsed
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	item.TimesUsed = timesUsed
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteCoupon removes a coupon (admin).
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
