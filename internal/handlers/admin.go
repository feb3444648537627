package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/models"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOutings int64
	if err := h.db.Model(&models.Outing{}).Count(&totalOutings).Error; err != nil {
		return err
	}

	// Transactions by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.PaymentTransaction{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	transactionsByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		transactionsByStatus[sc.Status] = sc.Count
	}

	// Revenue from successful payments
	var totalRevenue int64
	if err := h.db.Model(&models.PaymentTransaction{}).
		Where("status = ?", models.TransactionStatusSuccessful).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	// Coupon redemptions
	var couponRedemptions int64
	if err := h.db.Model(&models.Coupon{}).
		Select("COALESCE(SUM(times_used), 0)").
		Scan(&couponRedemptions).Error; err != nil {
		return err
	}

	var publishedArticles int64
	if err := h.db.Model(&models.Article{}).
		Where("is_published = ?", true).
		Count(&publishedArticles).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":            totalUsers,
			"total_outings":          totalOutings,
			"transactions_by_status": transactionsByStatus,
			"total_revenue":          totalRevenue,
			"coupon_redemptions":     couponRedemptions,
			"published_articles":     publishedArticles,
		},
	})
}

// ListUsers returns registered users for administration.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.db.Order("created_at desc").Limit(200).Find(&users).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": users})
}
