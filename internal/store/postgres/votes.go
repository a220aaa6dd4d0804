package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

func (s *Store) FindVote(ctx context.Context, questionID, userID string) (models.Vote, bool, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).
		Where("question_id = ? AND user_id = ?", questionID, userID).
		Take(&v).Error
	if err != nil {
		err = s.translate(err, "vote", "store_find_vote_failed", "question_id", questionID, "user_id", userID)
		if errors.Is(err, errorz.ErrNotFound) {
			return models.Vote{}, false, nil
		}
		return models.Vote{}, false, err
	}
	return v, true, nil
}

func (s *Store) LockVote(ctx context.Context, voteID string) (models.Vote, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", voteID).
		Take(&v).Error
	if err != nil {
		return models.Vote{}, s.translate(err, "vote", "store_lock_vote_failed", "vote_id", voteID)
	}
	return v, nil
}

func (s *Store) InsertVote(ctx context.Context, v *models.Vote) error {
	err := s.db.WithContext(ctx).Create(v).Error
	return s.translate(err, "vote", "store_insert_vote_failed", "question_id", v.QuestionID, "user_id", v.UserID)
}

func (s *Store) SetVoteValue(ctx context.Context, voteID string, value models.VoteValue, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", voteID).
		Updates(map[string]any{"value": string(value), "updated_at": at})
	if res.Error != nil {
		return s.translate(res.Error, "vote", "store_set_vote_value_failed", "vote_id", voteID)
	}
	if res.RowsAffected == 0 {
		return errorz.NotFound("vote")
	}
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, voteID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", voteID).Delete(&models.Vote{})
	if res.Error != nil {
		return s.translate(res.Error, "vote", "store_delete_vote_failed", "vote_id", voteID)
	}
	if res.RowsAffected == 0 {
		return errorz.NotFound("vote")
	}
	return nil
}

// AdjustVoteCount increments in SQL so concurrent adjustments never read a
// stale counter.
func (s *Store) AdjustVoteCount(ctx context.Context, questionID string, delta int) error {
	res := s.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", questionID).
		UpdateColumn("num_votes", gorm.Expr("num_votes + ?", delta))
	if res.Error != nil {
		return s.translate(res.Error, "question", "store_adjust_vote_count_failed", "question_id", questionID, "delta", delta)
	}
	if res.RowsAffected == 0 {
		return errorz.NotFound("question")
	}
	return nil
}
