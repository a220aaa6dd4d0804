package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company model - encounters reference companies by id
type Company struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Encounter model - one reported sighting of a question
type Encounter struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID string    `gorm:"type:uuid;not null;index" json:"question_id"`
	CompanyID  string    `gorm:"type:uuid;not null;index" json:"company_id"`
	Company    Company   `gorm:"foreignKey:CompanyID" json:"company"`
	Location   string    `gorm:"not null;index" json:"location"`
	Role       string    `gorm:"not null;index" json:"role"`
	SeenAt     time.Time `gorm:"not null;index" json:"seen_at"`
	UserID     string    `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *Encounter) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type CreateEncounterRequest struct {
	CompanyName string     `json:"company_name" binding:"required"`
	Location    string     `json:"location" binding:"required"`
	Role        string     `json:"role" binding:"required"`
	SeenAt      *time.Time `json:"seen_at"`
}
