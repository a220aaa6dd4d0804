package pagination

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/models"
)

// Key is the part of a question row the ordering reads.
type Key struct {
	ID         string
	Votes      int
	LastSeenAt time.Time
}

func KeyOf(q models.Question) Key {
	return Key{ID: q.ID, Votes: q.NumVotes, LastSeenAt: q.LastSeenAt}
}

// compare orders a and b ascending by sort key, then id.
func (q Query) compare(a, b Key) int {
	var c int
	if q.SortType == SortTop {
		c = cmp.Compare(a.Votes, b.Votes)
	} else {
		c = a.LastSeenAt.Compare(b.LastSeenAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	return c
}

// Compare orders a and b the way the page lists them.
func (q Query) Compare(a, b Key) int {
	if q.SortOrder == SortAsc {
		return q.compare(a, b)
	}
	return q.compare(b, a)
}

// Includes reports whether k sits at or after the page start.
func (q Query) Includes(k Key) bool {
	if q.From == nil {
		return true
	}
	return q.Compare(k, keyOfCursor(q.From)) >= 0
}

// CursorFor builds the cursor that starts a page at k.
func (q Query) CursorFor(k Key) Cursor {
	if q.SortType == SortTop {
		return TopCursor{QuestionID: k.ID, Votes: k.Votes, SortOrder: q.SortOrder}
	}
	return NewCursor{QuestionID: k.ID, LastSeenAt: k.LastSeenAt, SortOrder: q.SortOrder}
}

func keyOfCursor(c Cursor) Key {
	switch c := c.(type) {
	case TopCursor:
		return Key{ID: c.QuestionID, Votes: c.Votes}
	case NewCursor:
		return Key{ID: c.QuestionID, LastSeenAt: c.LastSeenAt}
	}
	return Key{}
}

// MatchType reports whether t passes the question type filter.
func (f Filter) MatchType(t models.QuestionType) bool {
	return len(f.QuestionTypes) == 0 || slices.Contains(f.QuestionTypes, t)
}

// MatchEncounter reports whether e falls in the date window and every
// non-empty list. e must have Company loaded.
func (f Filter) MatchEncounter(e models.Encounter) bool {
	if f.StartDate != nil && e.SeenAt.Before(*f.StartDate) {
		return false
	}
	if e.SeenAt.After(f.EndDate) {
		return false
	}
	return matches(f.CompanyNames, e.Company.Name) &&
		matches(f.Locations, e.Location) &&
		matches(f.Roles, e.Role)
}

func matches(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

// Split cuts rows fetched with q.Fetch() down to q.Limit and returns the
// token for the next page, or "" when rows held no extra row.
func Split[T any](q Query, rows []T, key func(T) Key) ([]T, string) {
	if len(rows) <= q.Limit {
		return rows, ""
	}
	next := q.CursorFor(key(rows[q.Limit]))
	return rows[:q.Limit], Encode(next)
}
