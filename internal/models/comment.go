package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	QuestionID string    `gorm:"type:uuid;not null;index" json:"question_id"`
	UserID     string    `gorm:"type:uuid;not null" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Answer model - a user's proposed answer to a question
type Answer struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	QuestionID string    `gorm:"type:uuid;not null;index" json:"question_id"`
	UserID     string    `gorm:"type:uuid;not null" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type CreateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
