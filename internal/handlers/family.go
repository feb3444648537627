package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/middleware"
	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/services"
)

// FamilyHandler manages family members, their preferences, and matching.
type FamilyHandler struct {
	db      *gorm.DB
	matcher *services.MatchService
}

// NewFamilyHandler constructs FamilyHandler.
func NewFamilyHandler(db *gorm.DB, matcher *services.MatchService) *FamilyHandler {
	return &FamilyHandler{db: db, matcher: matcher}
}

type familyMemberRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	BirthYear int    `json:"birth_year"`
}

type preferencesRequest struct {
	Preferences []struct {
		Category string `json:"category"`
		Weight   int    `json:"weight"`
	} `json:"preferences"`
}

// ListMembers returns the authenticated user's family members.
func (h *FamilyHandler) ListMembers(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var members []models.FamilyMember
	if err := h.db.Preload("Preferences").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&members).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": members})
}

// CreateMember adds a family member.
func (h *FamilyHandler) CreateMember(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req familyMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Role != models.MemberRoleParent && req.Role != models.MemberRoleChild {
		return fiber.NewError(fiber.StatusBadRequest, "role must be parent or child")
	}

	member := models.FamilyMember{
		UserID:    userID,
		Name:      req.Name,
		Role:      req.Role,
		BirthYear: req.BirthYear,
	}
	if err := h.db.Create(&member).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": member})
}

// SetPreferences replaces a member's category preferences.
func (h *FamilyHandler) SetPreferences(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	memberID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var member models.FamilyMember
	if err := h.db.First(&member, "id = ? AND user_id = ?", memberID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "family member not found")
		}
		return err
	}

	var req preferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	prefs := make([]models.MemberPreference, 0, len(req.Preferences))
	for _, p := range req.Preferences {
		if p.Category == "" {
			continue
		}
		weight := p.Weight
		if weight < 1 {
			weight = 1
		}
		if weight > 5 {
			weight = 5
		}
		prefs = append(prefs, models.MemberPreference{
			FamilyMemberID: member.ID,
			Category:       p.Category,
			Weight:         weight,
		})
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("family_member_id = ?", member.ID).
			Delete(&models.MemberPreference{}).Error; err != nil {
			return err
		}
		if len(prefs) == 0 {
			return nil
		}
		return tx.Create(&prefs).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": prefs})
}

// DeleteMember removes a family member and their preferences.
func (h *FamilyHandler) DeleteMember(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	memberID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("family_member_id = ?", memberID).
			Delete(&models.MemberPreference{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", memberID, userID).
			Delete(&models.FamilyMember{}).Error
	})
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Match returns activities both selected members would enjoy.
func (h *FamilyHandler) Match(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	parentID, err := uuid.Parse(c.Query("parent_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid parent_id")
	}
	childID, err := uuid.Parse(c.Query("child_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid child_id")
	}

	result, err := h.matcher.Match(c.Context(), userID, parentID, childID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "family member not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": result})
}
