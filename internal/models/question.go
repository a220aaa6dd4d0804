package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionType is the category an interview question belongs to
type QuestionType string

const (
	QuestionTypeBehavioral   QuestionType = "BEHAVIORAL"
	QuestionTypeCoding       QuestionType = "CODING"
	QuestionTypeSystemDesign QuestionType = "SYSTEM_DESIGN"
	QuestionTypeTheoretical  QuestionType = "THEORETICAL"
	QuestionTypeOther        QuestionType = "OTHER"
)

var questionTypes = map[QuestionType]struct{}{
	QuestionTypeBehavioral:   {},
	QuestionTypeCoding:       {},
	QuestionTypeSystemDesign: {},
	QuestionTypeTheoretical:  {},
	QuestionTypeOther:        {},
}

func (t QuestionType) Valid() bool {
	_, ok := questionTypes[t]
	return ok
}

// Question model. NumVotes is the denormalized sum of the vote ledger.
type Question struct {
	ID         string       `gorm:"type:uuid;primaryKey" json:"id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	Type       QuestionType `gorm:"type:varchar(32);not null;index" json:"type"`
	NumVotes   int          `gorm:"not null;default:0;index" json:"num_votes"`
	LastSeenAt time.Time    `gorm:"not null;index" json:"last_seen_at"`
	UserID     string       `gorm:"type:uuid;not null;index" json:"user_id"`
	User       User         `gorm:"foreignKey:UserID" json:"user"`
	Encounters []Encounter  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Votes      []Vote       `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Answers    []Answer     `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Comments   []Comment    `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`

	// Filled by list/get queries, never written.
	NumAnswers  int `gorm:"->;-:migration" json:"num_answers"`
	NumComments int `gorm:"->;-:migration" json:"num_comments"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// SearchHit is a raw question row ranked by the full-text index
type SearchHit struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	Type       QuestionType `json:"type"`
	NumVotes   int          `json:"num_votes"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	CreatedAt  time.Time    `json:"created_at"`
	Rank       float64      `json:"rank"`
}

type CreateQuestionRequest struct {
	Content     string       `json:"content" binding:"required"`
	Type        QuestionType `json:"type" binding:"required"`
	CompanyName string       `json:"company_name" binding:"required"`
	Location    string       `json:"location" binding:"required"`
	Role        string       `json:"role" binding:"required"`
	SeenAt      *time.Time   `json:"seen_at"`
}

type UpdateQuestionRequest struct {
	Content *string       `json:"content"`
	Type    *QuestionType `json:"type"`
}
