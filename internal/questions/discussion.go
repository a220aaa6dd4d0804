package questions

import (
	"context"
	"strings"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

// Answers are listed oldest first.
func (s *Service) Answers(ctx context.Context, caller auth.Caller, questionID string) ([]models.Answer, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	var answers []models.Answer
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetQuestion(ctx, questionID); err != nil {
			return err
		}
		var err error
		answers, err = tx.ListAnswers(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, s.fail("answer_list_failed", err, "question_id", questionID)
	}
	return answers, nil
}

func (s *Service) CreateAnswer(ctx context.Context, caller auth.Caller, questionID, content string) (models.Answer, error) {
	if err := caller.Require(); err != nil {
		return models.Answer{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Answer{}, errorz.Validation("answer content is required")
	}
	a := models.Answer{Content: content, QuestionID: questionID, UserID: caller.UserID}
	if err := s.store.CreateAnswer(ctx, &a); err != nil {
		return models.Answer{}, s.fail("answer_create_failed", err, "question_id", questionID)
	}
	s.logger.Info("answer created", "event", "answer_created", "answer_id", a.ID, "question_id", questionID)
	return a, nil
}

// Comments are listed newest first.
func (s *Service) Comments(ctx context.Context, caller auth.Caller, questionID string) ([]models.Comment, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetQuestion(ctx, questionID); err != nil {
			return err
		}
		var err error
		comments, err = tx.ListComments(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, s.fail("comment_list_failed", err, "question_id", questionID)
	}
	return comments, nil
}

func (s *Service) CreateComment(ctx context.Context, caller auth.Caller, questionID, body string) (models.Comment, error) {
	if err := caller.Require(); err != nil {
		return models.Comment{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Comment{}, errorz.Validation("comment body is required")
	}
	c := models.Comment{Body: body, QuestionID: questionID, UserID: caller.UserID}
	if err := s.store.CreateComment(ctx, &c); err != nil {
		return models.Comment{}, s.fail("comment_create_failed", err, "question_id", questionID)
	}
	s.logger.Info("comment created", "event", "comment_created", "comment_id", c.ID, "question_id", questionID)
	return c, nil
}

// DeleteComment removes one of the caller's own comments.
func (s *Service) DeleteComment(ctx context.Context, caller auth.Caller, commentID string) error {
	if err := caller.Require(); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.UserID != caller.UserID {
			return errorz.Forbidden("comment belongs to another user")
		}
		return tx.DeleteComment(ctx, commentID)
	})
	if err != nil {
		return s.fail("comment_delete_failed", err, "comment_id", commentID)
	}
	s.logger.Info("comment deleted", "event", "comment_deleted", "comment_id", commentID)
	return nil
}
