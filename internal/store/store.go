// Package store declares the storage gateway the services run against.
// Implementations live in store/postgres and store/memory.
package store

import (
	"context"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
)

// QuestionPatch holds the fields an update may change; nil means unchanged.
type QuestionPatch struct {
	Content *string
	Type    *models.QuestionType
}

type QuestionRepository interface {
	// ListQuestions returns up to q.Fetch() questions matching q.Filter,
	// starting at q.From, in q's order, with User, Encounters.Company and
	// Votes loaded.
	ListQuestions(ctx context.Context, q pagination.Query) ([]models.Question, error)
	GetQuestion(ctx context.Context, id string) (models.Question, error)
	// CreateQuestion inserts q and its first encounter. The encounter's
	// company is looked up or created by companyName.
	CreateQuestion(ctx context.Context, q *models.Question, e *models.Encounter, companyName string) error
	UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) error
	DeleteQuestion(ctx context.Context, id string) error
	// AddEncounter inserts e and raises the question's LastSeenAt to e.SeenAt
	// when later.
	AddEncounter(ctx context.Context, e *models.Encounter, companyName string) error
	// SearchQuestions runs a prepared full-text query and returns hits by
	// descending rank.
	SearchQuestions(ctx context.Context, tsquery string) ([]models.SearchHit, error)
	CountQuestionsByUser(ctx context.Context, userID string) (int64, error)
}

type VoteRepository interface {
	FindVote(ctx context.Context, questionID, userID string) (models.Vote, bool, error)
	// LockVote loads a vote and holds it against concurrent writers until the
	// surrounding transaction ends.
	LockVote(ctx context.Context, voteID string) (models.Vote, error)
	InsertVote(ctx context.Context, v *models.Vote) error
	SetVoteValue(ctx context.Context, voteID string, value models.VoteValue, at time.Time) error
	DeleteVote(ctx context.Context, voteID string) error
	// AdjustVoteCount adds delta to the question's denormalized counter.
	AdjustVoteCount(ctx context.Context, questionID string, delta int) error
}

type DiscussionRepository interface {
	CreateAnswer(ctx context.Context, a *models.Answer) error
	ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, questionID string) ([]models.Comment, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Tx is everything readable and writable inside one transaction.
type Tx interface {
	QuestionRepository
	VoteRepository
	DiscussionRepository
	UserRepository
}

// Store runs single statements directly and groups several with InTx.
type Store interface {
	Tx
	// InTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back on any error or panic.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
