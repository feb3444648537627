package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/utils"
)

// ActivityHandler manages the browsable activity catalog.
type ActivityHandler struct {
	db *gorm.DB
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// ListActivities returns active activities with optional filters.
func (h *ActivityHandler) ListActivities(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Activity{}).Where("is_active = ?", true)

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if age := strings.TrimSpace(c.Query("age")); age != "" {
		parsed, err := strconv.Atoi(age)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid age")
		}
		query = query.Where("age_min <= ? AND age_max >= ?", parsed, parsed)
	}
	if maxPrice := strings.TrimSpace(c.Query("max_price")); maxPrice != "" {
		parsed, err := strconv.ParseInt(maxPrice, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid max_price")
		}
		query = query.Where("price <= ?", parsed)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Activity
	if err := query.
		Order("rating desc, created_at desc").
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

// GetActivity returns a single activity.
func (h *ActivityHandler) GetActivity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Activity
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "activity not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// CreateActivity adds a catalog entry (admin).
func (h *ActivityHandler) CreateActivity(c *fiber.Ctx) error {
	var item models.Activity
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateActivity modifies a catalog entry (admin).
func (h *ActivityHandler) UpdateActivity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var item models.Activity
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "activity not found")
		}
		return err
	}
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteActivity removes a catalog entry (admin).
func (h *ActivityHandler) DeleteActivity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Activity{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
