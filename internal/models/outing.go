package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity is a catalog entry families can browse and add to an outing.
type Activity struct {
	BaseModel
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `gorm:"index" json:"category"`
	AgeMin      int     `json:"age_min"`
	AgeMax      int     `json:"age_max"`
	Price       int64   `json:"price"`
	Location    string  `json:"location"`
	ImageURL    string  `json:"image_url"`
	IsActive    bool    `json:"is_active"`
	Rating      float64 `json:"rating"`
}

// Outing is a planned family itinerary owned by a user.
type Outing struct {
	BaseModel
	UserID     uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	User       *User            `json:"user,omitempty"`
	Title      string           `json:"title"`
	Notes      string           `json:"notes"`
	PlannedFor time.Time        `json:"planned_for"`
	Activities []OutingActivity `json:"activities,omitempty"`
}

// OutingActivity is one scheduled activity inside an outing. The Paid flag
// is only ever set by the payment commit flow.
type OutingActivity struct {
	BaseModel
	OutingID     uuid.UUID  `gorm:"type:uuid;index" json:"outing_id"`
	ActivityID   *uuid.UUID `gorm:"type:uuid" json:"activity_id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Price        int64      `json:"price"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Paid         bool       `json:"paid"`
}
