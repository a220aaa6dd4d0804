// Package search prepares free text for the Postgres full-text matcher.
package search

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/emilythestrangee/question-board/backend/internal/models"
)

// BuildQuery replaces every rune that is not a letter or digit with a space,
// which removes all tsquery operators, then joins the remaining words with
// the OR operator. It returns "" when nothing searchable is left.
func BuildQuery(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(cleaned), " | ")
}

// Cache stores search hits by prepared query. A miss is (nil, false, nil).
// Purge drops every stored result; it is called after each question write.
type Cache interface {
	Get(ctx context.Context, query string) ([]models.SearchHit, bool, error)
	Set(ctx context.Context, query string, hits []models.SearchHit, ttl time.Duration) error
	Purge(ctx context.Context) error
}
