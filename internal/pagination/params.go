// Package pagination turns a listing request into a bounded, keyset-ordered
// Query and cuts fetched rows into a page plus the cursor for the next one.
package pagination

import (
	"strings"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

type SortType string

const (
	SortTop SortType = "TOP"
	SortNew SortType = "NEW"
)

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

const DefaultLimit = 20

// Filter selects questions with at least one matching encounter. Empty
// lists match everything; lists are OR within a field and AND across fields.
type Filter struct {
	CompanyNames  []string
	Locations     []string
	Roles         []string
	QuestionTypes []models.QuestionType
	StartDate     *time.Time
	EndDate       time.Time
}

// Params is a listing request as received from a caller.
type Params struct {
	CompanyNames  []string
	Locations     []string
	Roles         []string
	QuestionTypes []models.QuestionType
	StartDate     *time.Time
	EndDate       *time.Time
	SortType      SortType
	SortOrder     SortOrder
	Limit         int
	Cursor        string
}

// Query is a validated Params. From is nil on the first page.
type Query struct {
	Filter
	SortType  SortType
	SortOrder SortOrder
	Limit     int
	From      Cursor
}

// Fetch is how many rows the store must return: one past the page so the
// next cursor can be taken from the extra row.
func (q Query) Fetch() int {
	return q.Limit + 1
}

// Query validates p and fills defaults. EndDate defaults to now.
func (p Params) Query(now time.Time, maxLimit int) (Query, error) {
	q := Query{
		SortType:  p.SortType,
		SortOrder: p.SortOrder,
		Limit:     p.Limit,
	}
	if q.SortType == "" {
		q.SortType = SortNew
	}
	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	if q.SortType != SortTop && q.SortType != SortNew {
		return Query{}, errorz.Validation("unknown sort type %q", q.SortType)
	}
	if q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		return Query{}, errorz.Validation("unknown sort order %q", q.SortOrder)
	}
	if q.Limit < 1 || (maxLimit > 0 && q.Limit > maxLimit) {
		return Query{}, errorz.Validation("limit must be between 1 and %d", maxLimit)
	}

	for _, t := range p.QuestionTypes {
		if !t.Valid() {
			return Query{}, errorz.Validation("unknown question type %q", t)
		}
	}

	q.CompanyNames = clean(p.CompanyNames)
	q.Locations = clean(p.Locations)
	q.Roles = clean(p.Roles)
	q.QuestionTypes = p.QuestionTypes
	q.StartDate = p.StartDate
	q.EndDate = now
	if p.EndDate != nil {
		q.EndDate = *p.EndDate
	}
	if q.StartDate != nil && q.StartDate.After(q.EndDate) {
		return Query{}, errorz.Validation("startDate is after endDate")
	}

	if p.Cursor != "" {
		c, err := Decode(p.Cursor)
		if err != nil {
			return Query{}, err
		}
		if c.sortType() != q.SortType {
			return Query{}, errorz.Validation("cursor was issued for %s sort", c.sortType())
		}
		if c.Order() != q.SortOrder {
			return Query{}, errorz.Validation("cursor was issued for %s order", c.Order())
		}
		q.From = c
	}
	return q, nil
}

func clean(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
