package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/utils"
)

// ContentHandler manages articles and experts.
type ContentHandler struct {
	db *gorm.DB
}

// NewContentHandler constructs ContentHandler.
func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

// Articles

// ListArticles returns published articles; admins may pass all=true.
func (h *ContentHandler) ListArticles(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Article{})
	if c.Query("all") != "true" {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Article
	if err := query.Order("published_at desc nulls last, created_at desc").
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

// GetArticle returns one article by slug.
func (h *ContentHandler) GetArticle(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))

	var item models.Article
	if err := h.db.First(&item, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "article not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// CreateArticle adds an article (admin).
func (h *ContentHandler) CreateArticle(c *fiber.Ctx) error {
	var item models.Article
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item.Slug = slugify(item.Slug, item.Title)
	if item.IsPublished && item.PublishedAt == nil {
		now := time.Now()
		item.PublishedAt = &now
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateArticle modifies an article (admin).
func (h *ContentHandler) UpdateArticle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var item models.Article
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "article not found")
		}
		return err
	}
	wasPublished := item.IsPublished
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	if item.IsPublished && !wasPublished && item.PublishedAt == nil {
		now := time.Now()
		item.PublishedAt = &now
	}
	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteArticle removes an article (admin).
func (h *ContentHandler) DeleteArticle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Article{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Experts

// ListExperts returns active experts.
func (h *ContentHandler) ListExperts(c *fiber.Ctx) error {
	query := h.db.Model(&models.Expert{})
	if c.Query("all") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var items []models.Expert
	if err := query.Order("name asc").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// CreateExpert adds an expert (admin).
func (h *ContentHandler) CreateExpert(c *fiber.Ctx) error {
	var item models.Expert
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateExpert modifies an expert (admin).
func (h *ContentHandler) UpdateExpert(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var item models.Expert
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "expert not found")
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

// DeleteExpert removes an expert (admin).
func (h *ContentHandler) DeleteExpert(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Expert{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func slugify(slug, title string) string {
	base := strings.TrimSpace(slug)
	if base == "" {
		base = title
	}
	base = strings.ToLower(strings.TrimSpace(base))
	base = strings.Join(strings.Fields(base), "-")
	return base
}
