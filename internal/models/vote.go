package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteValue string

const (
	VoteUp   VoteValue = "UPVOTE"
	VoteDown VoteValue = "DOWNVOTE"
)

func (v VoteValue) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Contribution is the signed amount this value adds to a question's counter.
func (v VoteValue) Contribution() int {
	switch v {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	default:
		return 0
	}
}

// Vote model - ledger row, at most one per (question, user)
type Vote struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_question_user" json:"question_id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_question_user" json:"user_id"`
	Value      VoteValue `gorm:"type:varchar(8);not null" json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type VoteRequest struct {
	Value VoteValue `json:"value" binding:"required,oneof=UPVOTE DOWNVOTE"`
}
