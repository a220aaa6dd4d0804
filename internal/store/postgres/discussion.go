package postgres

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		return s.translate(err, "question", "store_create_answer_failed", "question_id", a.QuestionID)
	}
	return s.db.WithContext(ctx).Preload("User").Take(a, "id = ?", a.ID).Error
}

func (s *Store) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	answers := []models.Answer{}
	err := s.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Preload("User").
		Order("created_at asc").
		Find(&answers).Error
	if err != nil {
		return nil, s.translate(err, "question", "store_list_answers_failed", "question_id", questionID)
	}
	return answers, nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return s.translate(err, "question", "store_create_comment_failed", "question_id", c.QuestionID)
	}
	return s.db.WithContext(ctx).Preload("User").Take(c, "id = ?", c.ID).Error
}

func (s *Store) ListComments(ctx context.Context, questionID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Preload("User").
		Order("created_at desc").
		Find(&comments).Error
	if err != nil {
		return nil, s.translate(err, "question", "store_list_comments_failed", "question_id", questionID)
	}
	return comments, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("User").Take(&c, "id = ?", id).Error; err != nil {
		return models.Comment{}, s.translate(err, "comment", "store_get_comment_failed", "comment_id", id)
	}
	return c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return s.translate(res.Error, "comment", "store_delete_comment_failed", "comment_id", id)
	}
	if res.RowsAffected == 0 {
		return errorz.NotFound("comment")
	}
	return nil
}
