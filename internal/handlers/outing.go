package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/middleware"
	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/services"
	"github.com/example/salidas/internal/utils"
)

// OutingHandler manages outing itineraries.
type OutingHandler struct {
	db       *gorm.DB
	telegram *services.TelegramService
}

// NewOutingHandler constructs OutingHandler.
func NewOutingHandler(db *gorm.DB, telegram *services.TelegramService) *OutingHandler {
	return &OutingHandler{db: db, telegram: telegram}
}

type outingActivityRequest struct {
	ActivityID   string    `json:"activity_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Price        int64     `json:"price"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

type createOutingRequest struct {
	Title      string                  `json:"title"`
	Notes      string                  `json:"notes"`
	PlannedFor time.Time               `json:"planned_for"`
	Activities []outingActivityRequest `json:"activities"`
}

// CreateOuting creates an outing with its scheduled activities.
func (h *OutingHandler) CreateOuting(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOutingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}

	outing := models.Outing{
		UserID:     userID,
		Title:      req.Title,
		Notes:      req.Notes,
		PlannedFor: req.PlannedFor,
	}

	for _, a := range req.Activities {
		item := models.OutingActivity{
			Name:         a.Name,
			Category:     a.Category,
			Price:        a.Price,
			ScheduledFor: a.ScheduledFor,
		}
		if a.ActivityID != "" {
			if id, err := uuid.Parse(a.ActivityID); err == nil {
				item.ActivityID = &id

				// Fill catalog fields the client did not send.
				var catalog models.Activity
				if err := h.db.First(&catalog, "id = ?", id).Error; err == nil {
					if item.Name == "" {
						item.Name = catalog.Name
					}
					if item.Category == "" {
						item.Category = catalog.Category
					}
					if item.Price == 0 {
						item.Price = catalog.Price
					}
				}
			}
		}
		outing.Activities = append(outing.Activities, item)
	}

	if err := h.db.Create(&outing).Error; err != nil {
		return err
	}

	if h.telegram != nil {
		var user models.User
		userName := ""
		if err := h.db.First(&user, "id = ?", userID).Error; err == nil {
			userName = user.FirstName + " " + user.LastName
		}
		notification := services.OutingNotification{
			Title:      outing.Title,
			UserName:   userName,
			Activities: len(outing.Activities),
			PlannedFor: outing.PlannedFor.Format("2006-01-02"),
		}
		go func() {
			if err := h.telegram.NotifyNewOuting(notification); err != nil {
				log.Printf("[Outing] Telegram notification failed: %v", err)
			}
		}()
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": outing})
}

// ListOutings returns outings for the authenticated user.
func (h *OutingHandler) ListOutings(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Outing{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var outings []models.Outing
	if err := query.Preload("Activities").
		Order("planned_for desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&outings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    outings,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOuting returns a single outing for the authenticated user.
func (h *OutingHandler) GetOuting(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var outing models.Outing
	if err := h.db.Preload("Activities").
		First(&outing, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "outing not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": outing})
}

// DeleteOuting removes an outing that has no paid activities.
func (h *OutingHandler) DeleteOuting(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var outing models.Outing
	if err := h.db.First(&outing, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "outing not found")
		}
		return err
	}

	var paidCount int64
	if err := h.db.Model(&models.OutingActivity{}).
		Where("outing_id = ? AND paid = ?", id, true).
		Count(&paidCount).Error; err != nil {
		return err
	}
	if paidCount > 0 {
		return fiber.NewError(fiber.StatusConflict, "outing has paid activities")
	}

	if err := h.db.Where("outing_id = ?", id).Delete(&models.OutingActivity{}).Error; err != nil {
		return err
	}
	if err := h.db.Delete(&outing).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
