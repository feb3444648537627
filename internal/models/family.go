package models

import "github.com/google/uuid"

// Family member roles.
const (
	MemberRoleParent = "parent"
	MemberRoleChild  = "child"
)

// FamilyMember belongs to a user account and carries its own preferences.
type FamilyMember struct {
	BaseModel
	UserID      uuid.UUID          `gorm:"type:uuid;index" json:"user_id"`
	Name        string             `json:"name"`
	Role        string             `json:"role"`
	BirthYear   int                `json:"birth_year"`
	Preferences []MemberPreference `json:"preferences,omitempty"`
}

// MemberPreference is a weighted liking for an activity category.
type MemberPreference struct {
	BaseModel
	FamilyMemberID uuid.UUID `gorm:"type:uuid;index" json:"family_member_id"`
	Category       string    `json:"category"`
	Weight         int       `json:"weight"`
}
