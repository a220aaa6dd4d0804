// Package votes keeps each question's vote counter equal to the sum of its
// vote ledger. Every mutation writes the ledger row and the counter in one
// transaction.
package votes

import (
	"context"
	"log/slog"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

// UpdateDelta is the counter change for moving a vote from old to next:
// +2 or -2 for a flip, 0 when the value is unchanged.
func UpdateDelta(old, next models.VoteValue) int {
	return next.Contribution() - old.Contribution()
}

// DeleteDelta removes v's contribution.
func DeleteDelta(v models.VoteValue) int {
	return -v.Contribution()
}

type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(s store.Store, logger *slog.Logger) *Service {
	logger = logging.ResolveLogger(logger)
	return &Service{store: s, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the caller's vote on a question, or nil when there is none.
func (s *Service) Get(ctx context.Context, caller auth.Caller, questionID string) (*models.Vote, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	v, found, err := s.store.FindVote(ctx, questionID, caller.UserID)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func (s *Service) Create(ctx context.Context, caller auth.Caller, questionID string, value models.VoteValue) (models.Vote, error) {
	if err := caller.Require(); err != nil {
		return models.Vote{}, err
	}
	if !value.Valid() {
		return models.Vote{}, errorz.Validation("unknown vote value %q", value)
	}

	vote := models.Vote{QuestionID: questionID, UserID: caller.UserID, Value: value}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertVote(ctx, &vote); err != nil {
			return err
		}
		return tx.AdjustVoteCount(ctx, questionID, value.Contribution())
	})
	if err != nil {
		return models.Vote{}, s.fail("vote_create_failed", err, "question_id", questionID, "user_id", caller.UserID)
	}

	s.logger.Info("vote created",
		"event", "vote_created",
		"vote_id", vote.ID,
		"question_id", questionID,
		"user_id", caller.UserID,
		"value", value,
	)
	return vote, nil
}

// Update sets the value of the caller's vote. Setting the value it already
// has changes nothing.
func (s *Service) Update(ctx context.Context, caller auth.Caller, voteID string, value models.VoteValue) (models.Vote, error) {
	if err := caller.Require(); err != nil {
		return models.Vote{}, err
	}
	if !value.Valid() {
		return models.Vote{}, errorz.Validation("unknown vote value %q", value)
	}

	var vote models.Vote
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		vote, err = tx.LockVote(ctx, voteID)
		if err != nil {
			return err
		}
		if vote.UserID != caller.UserID {
			return errorz.Forbidden("vote belongs to another user")
		}

		delta := UpdateDelta(vote.Value, value)
		if delta == 0 {
			s.logger.Warn("vote update with unchanged value",
				"event", "vote_update_noop",
				"vote_id", voteID,
				"user_id", caller.UserID,
			)
			return nil
		}

		now := s.now()
		if err := tx.SetVoteValue(ctx, voteID, value, now); err != nil {
			return err
		}
		if err := tx.AdjustVoteCount(ctx, vote.QuestionID, delta); err != nil {
			return err
		}
		vote.Value = value
		vote.UpdatedAt = now
		return nil
	})
	if err != nil {
		return models.Vote{}, s.fail("vote_update_failed", err, "vote_id", voteID, "user_id", caller.UserID)
	}

	s.logger.Info("vote updated",
		"event", "vote_updated",
		"vote_id", voteID,
		"question_id", vote.QuestionID,
		"value", vote.Value,
	)
	return vote, nil
}

func (s *Service) Delete(ctx context.Context, caller auth.Caller, voteID string) (models.Vote, error) {
	if err := caller.Require(); err != nil {
		return models.Vote{}, err
	}

	var vote models.Vote
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		vote, err = tx.LockVote(ctx, voteID)
		if err != nil {
			return err
		}
		if vote.UserID != caller.UserID {
			return errorz.Forbidden("vote belongs to another user")
		}
		if err := tx.DeleteVote(ctx, voteID); err != nil {
			return err
		}
		return tx.AdjustVoteCount(ctx, vote.QuestionID, DeleteDelta(vote.Value))
	})
	if err != nil {
		return models.Vote{}, s.fail("vote_delete_failed", err, "vote_id", voteID, "user_id", caller.UserID)
	}

	s.logger.Info("vote deleted",
		"event", "vote_deleted",
		"vote_id", voteID,
		"question_id", vote.QuestionID,
	)
	return vote, nil
}

// fail logs err at a level matching its kind and returns it.
func (s *Service) fail(event string, err error, attrs ...any) error {
	attrs = append([]any{"event", event, "error", err.Error()}, attrs...)
	if errorz.Kind(err) != nil {
		s.logger.Warn("vote operation rejected", attrs...)
	} else {
		s.logger.Error("vote operation failed", attrs...)
	}
	return err
}
