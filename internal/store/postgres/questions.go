package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

const questionSelect = `questions.id, questions.content, questions.type, questions.num_votes,
	questions.last_seen_at, questions.user_id, questions.created_at, questions.updated_at,
	(SELECT COUNT(*) FROM answers a WHERE a.question_id = questions.id) AS num_answers,
	(SELECT COUNT(*) FROM comments c WHERE c.question_id = questions.id) AS num_comments`

const searchSQL = `
	SELECT id, content, type, num_votes, last_seen_at, created_at,
		ts_rank(search_vector, to_tsquery('english', @q)) AS rank
	FROM questions
	WHERE search_vector @@ to_tsquery('english', @q)
	ORDER BY rank DESC, id`

func (s *Store) questions(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Question{}).
		Select(questionSelect).
		Preload("User").
		Preload("Encounters.Company").
		Preload("Votes")
}

func (s *Store) ListQuestions(ctx context.Context, q pagination.Query) ([]models.Question, error) {
	tx := applyFilter(s.questions(ctx), q.Filter)
	tx = applyKeyset(tx, q)

	var rows []models.Question
	if err := tx.Limit(q.Fetch()).Find(&rows).Error; err != nil {
		return nil, s.translate(err, "question", "store_list_questions_failed",
			"sort_type", q.SortType, "sort_order", q.SortOrder)
	}
	return rows, nil
}

// applyFilter keeps questions with at least one encounter passing every
// encounter-level filter, then applies the question type filter.
func applyFilter(tx *gorm.DB, f pagination.Filter) *gorm.DB {
	conds := []string{"e.question_id = questions.id", "e.seen_at <= ?"}
	args := []any{f.EndDate}
	if f.StartDate != nil {
		conds = append(conds, "e.seen_at >= ?")
		args = append(args, *f.StartDate)
	}
	if len(f.CompanyNames) > 0 {
		conds = append(conds, "c.name IN ?")
		args = append(args, f.CompanyNames)
	}
	if len(f.Locations) > 0 {
		conds = append(conds, "e.location IN ?")
		args = append(args, f.Locations)
	}
	if len(f.Roles) > 0 {
		conds = append(conds, "e.role IN ?")
		args = append(args, f.Roles)
	}
	tx = tx.Where("EXISTS (SELECT 1 FROM encounters e JOIN companies c ON c.id = e.company_id WHERE "+
		strings.Join(conds, " AND ")+")", args...)

	if len(f.QuestionTypes) > 0 {
		types := make([]string, 0, len(f.QuestionTypes))
		for _, t := range f.QuestionTypes {
			types = append(types, string(t))
		}
		tx = tx.Where("questions.type IN ?", types)
	}
	return tx
}

// applyKeyset orders by (sort column, id) and, past the first page, starts
// at the cursor row inclusive.
func applyKeyset(tx *gorm.DB, q pagination.Query) *gorm.DB {
	column := "last_seen_at"
	if q.SortType == pagination.SortTop {
		column = "num_votes"
	}
	desc := q.SortOrder == pagination.SortDesc

	if q.From != nil {
		beyond, atOrBeyond := ">", ">="
		if desc {
			beyond, atOrBeyond = "<", "<="
		}
		var value any
		switch c := q.From.(type) {
		case pagination.TopCursor:
			value = c.Votes
		case pagination.NewCursor:
			value = c.LastSeenAt
		}
		tx = tx.Where("(questions."+column+" "+beyond+" ? OR (questions."+column+" = ? AND questions.id "+atOrBeyond+" ?))",
			value, value, q.From.ID())
	}

	return tx.
		Order(clause.OrderByColumn{Column: clause.Column{Table: "questions", Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "questions", Name: "id"}, Desc: desc})
}

func (s *Store) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	var q models.Question
	if err := s.questions(ctx).Where("questions.id = ?", id).Take(&q).Error; err != nil {
		return models.Question{}, s.translate(err, "question", "store_get_question_failed", "question_id", id)
	}
	return q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question, e *models.Encounter, companyName string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := companyByName(tx, companyName)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}
		e.QuestionID = q.ID
		e.CompanyID = company.ID
		if err := tx.Omit(clause.Associations).Create(e).Error; err != nil {
			return err
		}
		e.Company = company
		q.Encounters = []models.Encounter{*e}
		return nil
	})
	return s.translate(err, "question", "store_create_question_failed", "user_id", q.UserID)
}

// companyByName returns the company row for name, inserting it if needed.
func companyByName(tx *gorm.DB, name string) (models.Company, error) {
	company := models.Company{Name: name}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&company).Error; err != nil {
		return models.Company{}, err
	}
	if err := tx.Where("name = ?", name).Take(&company).Error; err != nil {
		return models.Company{}, err
	}
	return company, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, patch store.QuestionPatch) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Type != nil {
		updates["type"] = string(*patch.Type)
	}
	res := s.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return s.translate(res.Error, "question", "store_update_question_failed", "question_id", id)
	}
	if res.RowsAffected == 0 {
		return errorz.NotFound("question")
	}
	return nil
}

// DeleteQuestion removes the question row. Encounters, votes, answers and
// comments go with it through the ON DELETE CASCADE foreign keys.
func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Question{})
	if res.Error != nil {
		return s.translate(res.Error, "question", "store_delete_question_failed", "question_id", id)
	}
	if res.RowsAffected == 0 {
		return errorz.NotFound("question")
	}
	return nil
}

func (s *Store) AddEncounter(ctx context.Context, e *models.Encounter, companyName string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Question{}).
			Where("id = ?", e.QuestionID).
			UpdateColumn("last_seen_at", gorm.Expr("GREATEST(last_seen_at, ?)", e.SeenAt))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		company, err := companyByName(tx, companyName)
		if err != nil {
			return err
		}
		e.CompanyID = company.ID
		if err := tx.Omit(clause.Associations).Create(e).Error; err != nil {
			return err
		}
		e.Company = company
		return nil
	})
	return s.translate(err, "question", "store_add_encounter_failed", "question_id", e.QuestionID)
}

func (s *Store) SearchQuestions(ctx context.Context, tsquery string) ([]models.SearchHit, error) {
	hits := []models.SearchHit{}
	if err := s.db.WithContext(ctx).Raw(searchSQL, sql.Named("q", tsquery)).Scan(&hits).Error; err != nil {
		return nil, s.translate(err, "question", "store_search_questions_failed", "query", tsquery)
	}
	return hits, nil
}

func (s *Store) CountQuestionsByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Question{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, s.translate(err, "user", "store_count_questions_failed", "user_id", userID)
	}
	return n, nil
}
