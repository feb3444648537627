package models

import "time"

// Article is editorial content shown to families (tips, guides).
type Article struct {
	BaseModel
	Title       string     `json:"title"`
	Slug        string     `gorm:"uniqueIndex" json:"slug"`
	Summary     string     `json:"summary"`
	Body        string     `json:"body"`
	Author      string     `json:"author"`
	ImageURL    string     `json:"image_url"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
}

// Expert is a parenting/child-development professional listed in the app.
type Expert struct {
	BaseModel
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	Bio          string `json:"bio"`
	ContactEmail string `json:"contact_email"`
	ImageURL     string `json:"image_url"`
	IsActive     bool   `json:"is_active"`
}
