package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/models"
)

// CategoryMatch is one activity category both family members like.
type CategoryMatch struct {
	Category string `json:"category"`
	Weight   int    `json:"weight"`
}

// MatchResult pairs the shared categories with activities that fit them.
type MatchResult struct {
	Categories []CategoryMatch   `json:"categories"`
	Activities []models.Activity `json:"activities"`
}

// MatchService computes shared activity preferences between two family
// members, typically a parent and a child.
type MatchService struct {
	db *gorm.DB
}

// NewMatchService constructs MatchService.
func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{db: db}
}

// Match intersects the preferred categories of two members of the same
// account and returns active activities in those categories suitable for the
// child's age, strongest shared preference first.
func (s *MatchService) Match(ctx context.Context, userID, parentID, childID uuid.UUID) (*MatchResult, error) {
	parent, err := s.loadMember(ctx, userID, parentID)
	if err != nil {
		return nil, err
	}
	child, err := s.loadMember(ctx, userID, childID)
	if err != nil {
		return nil, err
	}

	shared := sharedCategories(parent.Preferences, child.Preferences)

	result := &MatchResult{Categories: shared, Activities: []models.Activity{}}
	if len(shared) == 0 {
		return result, nil
	}

	categories := make([]string, 0, len(shared))
	for _, c := range shared {
		categories = append(categories, c.Category)
	}

	query := s.db.WithContext(ctx).
		Where("is_active = ? AND category IN ?", true, categories)
	if child.BirthYear > 0 {
		age := time.Now().Year() - child.BirthYear
		query = query.Where("age_min <= ? AND age_max >= ?", age, age)
	}

	if err := query.Order("rating desc").Limit(50).Find(&result.Activities).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// sharedCategories intersects two preference lists, combined weight first.
func sharedCategories(parent, child []models.MemberPreference) []CategoryMatch {
	parentWeights := make(map[string]int, len(parent))
	for _, p := range parent {
		parentWeights[p.Category] = p.Weight
	}

	var shared []CategoryMatch
	for _, p := range child {
		if w, ok := parentWeights[p.Category]; ok {
			shared = append(shared, CategoryMatch{Category: p.Category, Weight: w + p.Weight})
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Weight > shared[j].Weight })
	return shared
}

func (s *MatchService) loadMember(ctx context.Context, userID, memberID uuid.UUID) (*models.FamilyMember, error) {
	var member models.FamilyMember
	if err := s.db.WithContext(ctx).
		Preload("Preferences").
		First(&member, "id = ? AND user_id = ?", memberID, userID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
