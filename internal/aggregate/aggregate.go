// Package aggregate folds a question's encounter and vote rows into the
// statistics shown on the question view.
package aggregate

import (
	"errors"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/models"
)

// ErrNoEncounters is returned when a question has no encounter rows, so
// LatestSeenAt is undefined. The other fields of Stats are still valid.
var ErrNoEncounters = errors.New("question has no encounters")

type Stats struct {
	NetVotes       int            `json:"net_votes"`
	CompanyCounts  map[string]int `json:"companies"`
	LocationCounts map[string]int `json:"locations"`
	RoleCounts     map[string]int `json:"roles"`
	LatestSeenAt   time.Time      `json:"latest_seen_at"`
	ReceivedCount  int            `json:"received_count"`
}

// Fold computes Stats in a single pass over each slice. The result does not
// depend on the order of either input. Encounters must have Company loaded.
func Fold(encounters []models.Encounter, votes []models.Vote) (Stats, error) {
	stats := Stats{
		CompanyCounts:  make(map[string]int),
		LocationCounts: make(map[string]int),
		RoleCounts:     make(map[string]int),
		ReceivedCount:  len(encounters),
	}

	for _, v := range votes {
		stats.NetVotes += v.Value.Contribution()
	}

	for _, e := range encounters {
		stats.CompanyCounts[e.Company.Name]++
		stats.LocationCounts[e.Location]++
		stats.RoleCounts[e.Role]++
		if e.SeenAt.After(stats.LatestSeenAt) {
			stats.LatestSeenAt = e.SeenAt
		}
	}

	if len(encounters) == 0 {
		return stats, ErrNoEncounters
	}
	return stats, nil
}
