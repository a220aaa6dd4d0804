package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

// dataset holds rows without their relations; reads hydrate them.
type dataset struct {
	users      map[string]models.User
	companies  map[string]models.Company
	questions  map[string]models.Question
	encounters map[string]models.Encounter
	votes      map[string]models.Vote
	answers    map[string]models.Answer
	comments   map[string]models.Comment
	now        func() time.Time
}

func newDataset(now func() time.Time) *dataset {
	return &dataset{
		users:      map[string]models.User{},
		companies:  map[string]models.Company{},
		questions:  map[string]models.Question{},
		encounters: map[string]models.Encounter{},
		votes:      map[string]models.Vote{},
		answers:    map[string]models.Answer{},
		comments:   map[string]models.Comment{},
		now:        now,
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:      maps.Clone(d.users),
		companies:  maps.Clone(d.companies),
		questions:  maps.Clone(d.questions),
		encounters: maps.Clone(d.encounters),
		votes:      maps.Clone(d.votes),
		answers:    maps.Clone(d.answers),
		comments:   maps.Clone(d.comments),
		now:        d.now,
	}
}

func (d *dataset) hydrate(q models.Question) models.Question {
	q.User = d.users[q.UserID]
	q.Encounters = nil
	q.Votes = nil
	for _, e := range d.encounters {
		if e.QuestionID == q.ID {
			e.Company = d.companies[e.CompanyID]
			q.Encounters = append(q.Encounters, e)
		}
	}
	for _, v := range d.votes {
		if v.QuestionID == q.ID {
			q.Votes = append(q.Votes, v)
		}
	}
	q.NumAnswers, q.NumComments = 0, 0
	for _, a := range d.answers {
		if a.QuestionID == q.ID {
			q.NumAnswers++
		}
	}
	for _, c := range d.comments {
		if c.QuestionID == q.ID {
			q.NumComments++
		}
	}
	return q
}

func (d *dataset) ListQuestions(_ context.Context, q pagination.Query) ([]models.Question, error) {
	var rows []models.Question
	for _, row := range d.questions {
		if !q.MatchType(row.Type) || !q.Includes(pagination.KeyOf(row)) {
			continue
		}
		row = d.hydrate(row)
		if slices.ContainsFunc(row.Encounters, q.MatchEncounter) {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b models.Question) int {
		return q.Compare(pagination.KeyOf(a), pagination.KeyOf(b))
	})
	if len(rows) > q.Fetch() {
		rows = rows[:q.Fetch()]
	}
	return rows, nil
}

func (d *dataset) GetQuestion(_ context.Context, id string) (models.Question, error) {
	q, ok := d.questions[id]
	if !ok {
		return models.Question{}, errorz.NotFound("question")
	}
	return d.hydrate(q), nil
}

func (d *dataset) company(name string) models.Company {
	for _, c := range d.companies {
		if c.Name == name {
			return c
		}
	}
	c := models.Company{ID: uuid.NewString(), Name: name}
	d.companies[c.ID] = c
	return c
}

func (d *dataset) CreateQuestion(_ context.Context, q *models.Question, e *models.Encounter, companyName string) error {
	if _, ok := d.users[q.UserID]; !ok {
		return errorz.NotFound("question references a missing row")
	}
	now := d.now()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt, q.UpdatedAt = now, now

	company := d.company(companyName)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.QuestionID = q.ID
	e.CompanyID = company.ID
	e.CreatedAt = now

	stored := *q
	stored.Encounters, stored.Votes, stored.User = nil, nil, models.User{}
	d.questions[q.ID] = stored
	d.encounters[e.ID] = *e

	e.Company = company
	q.Encounters = []models.Encounter{*e}
	return nil
}

func (d *dataset) UpdateQuestion(_ context.Context, id string, patch store.QuestionPatch) error {
	q, ok := d.questions[id]
	if !ok {
		return errorz.NotFound("question")
	}
	if patch.Content != nil {
		q.Content = *patch.Content
	}
	if patch.Type != nil {
		q.Type = *patch.Type
	}
	q.UpdatedAt = d.now()
	d.questions[id] = q
	return nil
}

func (d *dataset) DeleteQuestion(_ context.Context, id string) error {
	if _, ok := d.questions[id]; !ok {
		return errorz.NotFound("question")
	}
	delete(d.questions, id)
	maps.DeleteFunc(d.encounters, func(_ string, e models.Encounter) bool { return e.QuestionID == id })
	maps.DeleteFunc(d.votes, func(_ string, v models.Vote) bool { return v.QuestionID == id })
	maps.DeleteFunc(d.answers, func(_ string, a models.Answer) bool { return a.QuestionID == id })
	maps.DeleteFunc(d.comments, func(_ string, c models.Comment) bool { return c.QuestionID == id })
	return nil
}

func (d *dataset) AddEncounter(_ context.Context, e *models.Encounter, companyName string) error {
	q, ok := d.questions[e.QuestionID]
	if !ok {
		return errorz.NotFound("question")
	}
	if e.SeenAt.After(q.LastSeenAt) {
		q.LastSeenAt = e.SeenAt
		d.questions[q.ID] = q
	}
	company := d.company(companyName)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CompanyID = company.ID
	e.CreatedAt = d.now()
	d.encounters[e.ID] = *e
	e.Company = company
	return nil
}

// SearchQuestions ranks by how many OR-ed terms occur in the content, a
// stand-in for the Postgres text ranking.
func (d *dataset) SearchQuestions(_ context.Context, tsquery string) ([]models.SearchHit, error) {
	var terms []string
	for _, t := range strings.Split(tsquery, "|") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	hits := []models.SearchHit{}
	for _, q := range d.questions {
		content := strings.ToLower(q.Content)
		var rank float64
		for _, t := range terms {
			if strings.Contains(content, t) {
				rank++
			}
		}
		if rank == 0 {
			continue
		}
		hits = append(hits, models.SearchHit{
			ID: q.ID, Content: q.Content, Type: q.Type, NumVotes: q.NumVotes,
			LastSeenAt: q.LastSeenAt, CreatedAt: q.CreatedAt, Rank: rank,
		})
	}
	slices.SortFunc(hits, func(a, b models.SearchHit) int {
		if a.Rank != b.Rank {
			if a.Rank > b.Rank {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return hits, nil
}

func (d *dataset) CountQuestionsByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, q := range d.questions {
		if q.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (d *dataset) FindVote(_ context.Context, questionID, userID string) (models.Vote, bool, error) {
	for _, v := range d.votes {
		if v.QuestionID == questionID && v.UserID == userID {
			return v, true, nil
		}
	}
	return models.Vote{}, false, nil
}

func (d *dataset) LockVote(_ context.Context, voteID string) (models.Vote, error) {
	v, ok := d.votes[voteID]
	if !ok {
		return models.Vote{}, errorz.NotFound("vote")
	}
	return v, nil
}

func (d *dataset) InsertVote(ctx context.Context, v *models.Vote) error {
	if _, ok := d.questions[v.QuestionID]; !ok {
		return errorz.NotFound("vote references a missing row")
	}
	if _, found, _ := d.FindVote(ctx, v.QuestionID, v.UserID); found {
		return errorz.Conflict("vote already exists")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := d.now()
	v.CreatedAt, v.UpdatedAt = now, now
	d.votes[v.ID] = *v
	return nil
}

func (d *dataset) SetVoteValue(_ context.Context, voteID string, value models.VoteValue, at time.Time) error {
	v, ok := d.votes[voteID]
	if !ok {
		return errorz.NotFound("vote")
	}
	v.Value = value
	v.UpdatedAt = at
	d.votes[voteID] = v
	return nil
}

func (d *dataset) DeleteVote(_ context.Context, voteID string) error {
	if _, ok := d.votes[voteID]; !ok {
		return errorz.NotFound("vote")
	}
	delete(d.votes, voteID)
	return nil
}

func (d *dataset) AdjustVoteCount(_ context.Context, questionID string, delta int) error {
	q, ok := d.questions[questionID]
	if !ok {
		return errorz.NotFound("question")
	}
	q.NumVotes += delta
	d.questions[questionID] = q
	return nil
}

func (d *dataset) CreateAnswer(_ context.Context, a *models.Answer) error {
	if _, ok := d.questions[a.QuestionID]; !ok {
		return errorz.NotFound("question")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := d.now()
	a.CreatedAt, a.UpdatedAt = now, now
	d.answers[a.ID] = *a
	a.User = d.users[a.UserID]
	return nil
}

func (d *dataset) ListAnswers(_ context.Context, questionID string) ([]models.Answer, error) {
	answers := []models.Answer{}
	for _, a := range d.answers {
		if a.QuestionID == questionID {
			a.User = d.users[a.UserID]
			answers = append(answers, a)
		}
	}
	slices.SortFunc(answers, func(a, b models.Answer) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return answers, nil
}

func (d *dataset) CreateComment(_ context.Context, c *models.Comment) error {
	if _, ok := d.questions[c.QuestionID]; !ok {
		return errorz.NotFound("question")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := d.now()
	c.CreatedAt, c.UpdatedAt = now, now
	d.comments[c.ID] = *c
	c.User = d.users[c.UserID]
	return nil
}

func (d *dataset) ListComments(_ context.Context, questionID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	for _, c := range d.comments {
		if c.QuestionID == questionID {
			c.User = d.users[c.UserID]
			comments = append(comments, c)
		}
	}
	slices.SortFunc(comments, func(a, b models.Comment) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return comments, nil
}

func (d *dataset) GetComment(_ context.Context, id string) (models.Comment, error) {
	c, ok := d.comments[id]
	if !ok {
		return models.Comment{}, errorz.NotFound("comment")
	}
	c.User = d.users[c.UserID]
	return c, nil
}

func (d *dataset) DeleteComment(_ context.Context, id string) error {
	if _, ok := d.comments[id]; !ok {
		return errorz.NotFound("comment")
	}
	delete(d.comments, id)
	return nil
}

func (d *dataset) CreateUser(_ context.Context, u *models.User) error {
	for _, existing := range d.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return errorz.Conflict("user already exists")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := d.now()
	u.CreatedAt, u.UpdatedAt = now, now
	d.users[u.ID] = *u
	return nil
}

func (d *dataset) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return models.User{}, errorz.NotFound("user")
	}
	return u, nil
}

func (d *dataset) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, errorz.NotFound("user")
}
