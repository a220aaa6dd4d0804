// Package questions serves the question board: filtered keyset listing,
// related search, and the question lifecycle with its encounters and
// discussion.
package questions

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
	"github.com/emilythestrangee/question-board/backend/internal/search"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

type Options struct {
	Logger       *slog.Logger
	MaxPageLimit int
	// Cache is optional. Search goes straight to the store without it.
	Cache    search.Cache
	CacheTTL time.Duration
}

type Service struct {
	store    store.Store
	cache    search.Cache
	cacheTTL time.Duration
	maxLimit int
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(s store.Store, opts Options) *Service {
	logger := logging.ResolveLogger(opts.Logger)
	maxLimit := opts.MaxPageLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{
		store:    s,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxLimit: maxLimit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of questions matching params plus the cursor for
// the next page, or a nil cursor on the last page.
func (s *Service) List(ctx context.Context, caller auth.Caller, params pagination.Params) (Page, error) {
	if err := caller.Require(); err != nil {
		return Page{}, err
	}
	q, err := params.Query(s.now(), s.maxLimit)
	if err != nil {
		return Page{}, err
	}

	rows, err := s.store.ListQuestions(ctx, q)
	if err != nil {
		return Page{}, s.fail("question_list_failed", err)
	}
	rows, next := pagination.Split(q, rows, pagination.KeyOf)

	page := Page{Items: make([]View, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, s.view(row))
	}
	if next != "" {
		page.NextCursor = &next
	}
	return page, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (View, error) {
	if err := caller.Require(); err != nil {
		return View{}, err
	}
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return View{}, s.fail("question_get_failed", err, "question_id", id)
	}
	return s.view(q), nil
}

// SearchRelated finds questions whose text shares any word with text,
// best match first. Text with no words yields an empty result.
func (s *Service) SearchRelated(ctx context.Context, caller auth.Caller, text string) ([]models.SearchHit, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	query := search.BuildQuery(text)
	if query == "" {
		return []models.SearchHit{}, nil
	}

	if s.cache != nil {
		hits, ok, err := s.cache.Get(ctx, query)
		switch {
		case err != nil:
			s.logger.Warn("search cache read failed", "event", "search_cache_error", "error", err.Error())
		case ok:
			return hits, nil
		}
	}

	hits, err := s.store.SearchQuestions(ctx, query)
	if err != nil {
		return nil, s.fail("question_search_failed", err, "query", query)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, hits, s.cacheTTL); err != nil {
			s.logger.Warn("search cache write failed", "event", "search_cache_error", "error", err.Error())
		}
	}
	return hits, nil
}

type CreateInput struct {
	Content     string
	Type        models.QuestionType
	CompanyName string
	Location    string
	Role        string
	// SeenAt defaults to now.
	SeenAt *time.Time
}

type EncounterInput struct {
	CompanyName string
	Location    string
	Role        string
	SeenAt      *time.Time
}

// Create stores a question together with the encounter that reported it.
func (s *Service) Create(ctx context.Context, caller auth.Caller, in CreateInput) (View, error) {
	if err := caller.Require(); err != nil {
		return View{}, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return View{}, errorz.Validation("content is required")
	}
	if !in.Type.Valid() {
		return View{}, errorz.Validation("unknown question type %q", in.Type)
	}
	enc, company, err := s.encounter(caller, EncounterInput{
		CompanyName: in.CompanyName,
		Location:    in.Location,
		Role:        in.Role,
		SeenAt:      in.SeenAt,
	})
	if err != nil {
		return View{}, err
	}

	q := models.Question{
		Content:    content,
		Type:       in.Type,
		UserID:     caller.UserID,
		LastSeenAt: enc.SeenAt,
	}
	var created models.Question
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateQuestion(ctx, &q, &enc, company); err != nil {
			return err
		}
		var err error
		created, err = tx.GetQuestion(ctx, q.ID)
		return err
	})
	if err != nil {
		return View{}, s.fail("question_create_failed", err, "user_id", caller.UserID)
	}
	s.purgeSearch(ctx)
	s.logger.Info("question created",
		"event", "question_created",
		"question_id", q.ID,
		"user_id", caller.UserID,
		"type", q.Type,
	)
	return s.view(created), nil
}

// AddEncounter records that the question was seen again.
func (s *Service) AddEncounter(ctx context.Context, caller auth.Caller, questionID string, in EncounterInput) (View, error) {
	if err := caller.Require(); err != nil {
		return View{}, err
	}
	enc, company, err := s.encounter(caller, in)
	if err != nil {
		return View{}, err
	}
	enc.QuestionID = questionID

	var q models.Question
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		if err := tx.AddEncounter(ctx, &enc, company); err != nil {
			return err
		}
		var err error
		q, err = tx.GetQuestion(ctx, questionID)
		return err
	})
	if err != nil {
		return View{}, s.fail("encounter_create_failed", err, "question_id", questionID)
	}
	s.purgeSearch(ctx)
	s.logger.Info("encounter added",
		"event", "encounter_created",
		"question_id", questionID,
		"encounter_id", enc.ID,
		"company", company,
	)
	return s.view(q), nil
}

func (s *Service) encounter(caller auth.Caller, in EncounterInput) (models.Encounter, string, error) {
	company := strings.TrimSpace(in.CompanyName)
	location := strings.TrimSpace(in.Location)
	role := strings.TrimSpace(in.Role)
	if company == "" || location == "" || role == "" {
		return models.Encounter{}, "", errorz.Validation("company, location and role are required")
	}
	now := s.now()
	seenAt := now
	if in.SeenAt != nil {
		seenAt = in.SeenAt.UTC()
	}
	if seenAt.After(now) {
		return models.Encounter{}, "", errorz.Validation("seenAt is in the future")
	}
	return models.Encounter{
		Location: location,
		Role:     role,
		SeenAt:   seenAt,
		UserID:   caller.UserID,
	}, company, nil
}

type UpdateInput struct {
	Content *string
	Type    *models.QuestionType
}

// Update changes the content or type of the caller's own question.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id string, in UpdateInput) (View, error) {
	if err := caller.Require(); err != nil {
		return View{}, err
	}
	var patch store.QuestionPatch
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return View{}, errorz.Validation("content cannot be empty")
		}
		patch.Content = &content
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return View{}, errorz.Validation("unknown question type %q", *in.Type)
		}
		patch.Type = in.Type
	}

	var q models.Question
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if err := s.owned(ctx, tx, caller, id); err != nil {
			return err
		}
		if err := tx.UpdateQuestion(ctx, id, patch); err != nil {
			return err
		}
		var err error
		q, err = tx.GetQuestion(ctx, id)
		return err
	})
	if err != nil {
		return View{}, s.fail("question_update_failed", err, "question_id", id, "user_id", caller.UserID)
	}
	s.purgeSearch(ctx)
	s.logger.Info("question updated", "event", "question_updated", "question_id", id)
	return s.view(q), nil
}

// Delete removes the caller's own question with everything attached to it
// and returns the question as it was.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, id string) (View, error) {
	if err := caller.Require(); err != nil {
		return View{}, err
	}
	var deleted View
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		q, err := tx.GetQuestion(ctx, id)
		if err != nil {
			return err
		}
		if q.UserID != caller.UserID {
			return errorz.Forbidden("question belongs to another user")
		}
		deleted = s.view(q)
		return tx.DeleteQuestion(ctx, id)
	})
	if err != nil {
		return View{}, s.fail("question_delete_failed", err, "question_id", id, "user_id", caller.UserID)
	}
	s.purgeSearch(ctx)
	s.logger.Info("question deleted", "event", "question_deleted", "question_id", id)
	return deleted, nil
}

// purgeSearch drops cached search results after a committed question write.
// The write stands even when the cache is unreachable.
func (s *Service) purgeSearch(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		s.logger.Warn("search cache purge failed", "event", "search_cache_error", "error", err.Error())
	}
}

func (s *Service) owned(ctx context.Context, tx store.Tx, caller auth.Caller, id string) error {
	q, err := tx.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if q.UserID != caller.UserID {
		return errorz.Forbidden("question belongs to another user")
	}
	return nil
}

// fail logs err at a level matching its kind and returns it.
func (s *Service) fail(event string, err error, attrs ...any) error {
	attrs = append([]any{"event", event, "error", err.Error()}, attrs...)
	if errorz.Kind(err) != nil {
		s.logger.Warn("question operation rejected", attrs...)
	} else {
		s.logger.Error("question operation failed", attrs...)
	}
	return err
}
