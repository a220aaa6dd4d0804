package questions

import (
	"errors"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/aggregate"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

// View is the public shape of a question with its encounters folded in.
type View struct {
	ID                   string              `json:"id"`
	Content              string              `json:"content"`
	Type                 models.QuestionType `json:"type"`
	NumVotes             int                 `json:"num_votes"`
	NumAnswers           int                 `json:"num_answers"`
	NumComments          int                 `json:"num_comments"`
	ReceivedCount        int                 `json:"received_count"`
	SeenAt               time.Time           `json:"seen_at"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	User                 models.User         `json:"user"`
	AggregatedEncounters Encounters          `json:"aggregated_encounters"`
}

type Encounters struct {
	Companies map[string]int `json:"companies"`
	Locations map[string]int `json:"locations"`
	Roles     map[string]int `json:"roles"`
}

type Page struct {
	Items      []View  `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

func (s *Service) view(q models.Question) View {
	stats, err := aggregate.Fold(q.Encounters, q.Votes)
	seenAt := stats.LatestSeenAt
	if errors.Is(err, aggregate.ErrNoEncounters) {
		s.logger.Warn("question has no encounters",
			"event", "question_without_encounters",
			"question_id", q.ID,
		)
		seenAt = q.LastSeenAt
	}
	if stats.NetVotes != q.NumVotes {
		s.logger.Warn("vote counter differs from ledger",
			"event", "vote_counter_drift",
			"question_id", q.ID,
			"counter", q.NumVotes,
			"ledger", stats.NetVotes,
		)
	}

	return View{
		ID:            q.ID,
		Content:       q.Content,
		Type:          q.Type,
		NumVotes:      stats.NetVotes,
		NumAnswers:    q.NumAnswers,
		NumComments:   q.NumComments,
		ReceivedCount: stats.ReceivedCount,
		SeenAt:        seenAt,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		User:          q.User,
		AggregatedEncounters: Encounters{
			Companies: stats.CompanyCounts,
			Locations: stats.LocationCounts,
			Roles:     stats.RoleCounts,
		},
	}
}
