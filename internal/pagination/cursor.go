package pagination

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
)

// Cursor marks where the next page starts. It is either a NewCursor or a
// TopCursor; the unexported method keeps other types out. A cursor is only
// valid for the sort type and order it was issued under.
type Cursor interface {
	ID() string
	Order() SortOrder
	sortType() SortType
}

// NewCursor resumes a NEW scan at (LastSeenAt, QuestionID).
type NewCursor struct {
	QuestionID string
	LastSeenAt time.Time
	SortOrder  SortOrder
}

// TopCursor resumes a TOP scan at (Votes, QuestionID).
type TopCursor struct {
	QuestionID string
	Votes      int
	SortOrder  SortOrder
}

func (c NewCursor) ID() string         { return c.QuestionID }
func (c NewCursor) Order() SortOrder   { return c.SortOrder }
func (c NewCursor) sortType() SortType { return SortNew }
func (c TopCursor) ID() string         { return c.QuestionID }
func (c TopCursor) Order() SortOrder   { return c.SortOrder }
func (c TopCursor) sortType() SortType { return SortTop }

type wireCursor struct {
	Kind     SortType   `json:"kind"`
	Order    SortOrder  `json:"order"`
	ID       string     `json:"id"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
	Votes    *int       `json:"votes,omitempty"`
}

// Encode renders c as an opaque URL-safe token.
func Encode(c Cursor) string {
	w := wireCursor{Kind: c.sortType(), Order: c.Order(), ID: c.ID()}
	switch c := c.(type) {
	case NewCursor:
		ts := c.LastSeenAt.UTC()
		w.LastSeen = &ts
	case TopCursor:
		votes := c.Votes
		w.Votes = &votes
	}
	raw, _ := json.Marshal(w)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode.
func Decode(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errorz.Validation("malformed cursor")
	}
	var w wireCursor
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errorz.Validation("malformed cursor")
	}
	if _, err := uuid.Parse(w.ID); err != nil {
		return nil, errorz.Validation("cursor id is not a question id")
	}
	if w.Order != SortAsc && w.Order != SortDesc {
		return nil, errorz.Validation("cursor has no sort order")
	}

	switch w.Kind {
	case SortNew:
		if w.LastSeen == nil || w.Votes != nil {
			return nil, errorz.Validation("malformed %s cursor", w.Kind)
		}
		return NewCursor{QuestionID: w.ID, LastSeenAt: *w.LastSeen, SortOrder: w.Order}, nil
	case SortTop:
		if w.Votes == nil || w.LastSeen != nil {
			return nil, errorz.Validation("malformed %s cursor", w.Kind)
		}
		return TopCursor{QuestionID: w.ID, Votes: *w.Votes, SortOrder: w.Order}, nil
	default:
		return nil, errorz.Validation("unknown cursor kind %q", w.Kind)
	}
}
