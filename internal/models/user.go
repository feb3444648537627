package models

// User represents a registered parent account.
type User struct {
	BaseModel
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Email         string         `gorm:"uniqueIndex" json:"email"`
	PasswordHash  string         `json:"-"`
	IsAdmin       bool           `json:"is_admin"`
	FamilyMembers []FamilyMember `json:"family_members,omitempty"`
	Outings       []Outing       `json:"outings,omitempty"`
}
