// Package memory is an in-process storage gateway with the same semantics as
// the Postgres store. Transactions run on a copy that replaces the live data
// only on commit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

type Store struct {
	mu     sync.Mutex
	data   *dataset
	faults *faults
}

type faults struct {
	mu   sync.Mutex
	next map[string]error
}

// take returns and clears the fault armed for op.
func (f *faults) take(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.next[op]
	delete(f.next, op)
	return err
}

func New() *Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

func NewWithClock(now func() time.Time) *Store {
	return &Store{
		data:   newDataset(now),
		faults: &faults{next: map[string]error{}},
	}
}

// FailNext makes the next call of the named operation (InsertVote,
// SetVoteValue, DeleteVote, AdjustVoteCount, GetQuestion) return err.
func (s *Store) FailNext(op string, err error) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	s.faults.next[op] = err
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := &txView{dataset: s.data.clone(), faults: s.faults}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panicked: %v", r)
		}
	}()
	if err := fn(work); err != nil {
		return err
	}
	s.data = work.dataset
	return nil
}

// txView is the Tx handed to InTx callbacks; writes land on its private copy.
type txView struct {
	*dataset
	faults *faults
}

func (t *txView) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	if err := t.faults.take("GetQuestion"); err != nil {
		return models.Question{}, err
	}
	return t.dataset.GetQuestion(ctx, id)
}

func (t *txView) InsertVote(ctx context.Context, v *models.Vote) error {
	if err := t.faults.take("InsertVote"); err != nil {
		return err
	}
	return t.dataset.InsertVote(ctx, v)
}

func (t *txView) SetVoteValue(ctx context.Context, voteID string, value models.VoteValue, at time.Time) error {
	if err := t.faults.take("SetVoteValue"); err != nil {
		return err
	}
	return t.dataset.SetVoteValue(ctx, voteID, value, at)
}

func (t *txView) DeleteVote(ctx context.Context, voteID string) error {
	if err := t.faults.take("DeleteVote"); err != nil {
		return err
	}
	return t.dataset.DeleteVote(ctx, voteID)
}

func (t *txView) AdjustVoteCount(ctx context.Context, questionID string, delta int) error {
	if err := t.faults.take("AdjustVoteCount"); err != nil {
		return err
	}
	return t.dataset.AdjustVoteCount(ctx, questionID, delta)
}

// single runs fn as its own transaction.
func single[T any](s *Store, ctx context.Context, fn func(tx store.Tx) (T, error)) (T, error) {
	var out T
	err := s.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

func (s *Store) exec(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.InTx(ctx, fn)
}

func (s *Store) ListQuestions(ctx context.Context, q pagination.Query) ([]models.Question, error) {
	return single(s, ctx, func(tx store.Tx) ([]models.Question, error) { return tx.ListQuestions(ctx, q) })
}

func (s *Store) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	return single(s, ctx, func(tx store.Tx) (models.Question, error) { return tx.GetQuestion(ctx, id) })
}

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question, e *models.Encounter, companyName string) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.CreateQuestion(ctx, q, e, companyName) })
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, patch store.QuestionPatch) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.UpdateQuestion(ctx, id, patch) })
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.DeleteQuestion(ctx, id) })
}

func (s *Store) AddEncounter(ctx context.Context, e *models.Encounter, companyName string) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.AddEncounter(ctx, e, companyName) })
}

func (s *Store) SearchQuestions(ctx context.Context, tsquery string) ([]models.SearchHit, error) {
	return single(s, ctx, func(tx store.Tx) ([]models.SearchHit, error) { return tx.SearchQuestions(ctx, tsquery) })
}

func (s *Store) CountQuestionsByUser(ctx context.Context, userID string) (int64, error) {
	return single(s, ctx, func(tx store.Tx) (int64, error) { return tx.CountQuestionsByUser(ctx, userID) })
}

func (s *Store) FindVote(ctx context.Context, questionID, userID string) (models.Vote, bool, error) {
	var found bool
	v, err := single(s, ctx, func(tx store.Tx) (models.Vote, error) {
		v, ok, err := tx.FindVote(ctx, questionID, userID)
		found = ok
		return v, err
	})
	return v, found, err
}

func (s *Store) LockVote(ctx context.Context, voteID string) (models.Vote, error) {
	return single(s, ctx, func(tx store.Tx) (models.Vote, error) { return tx.LockVote(ctx, voteID) })
}

func (s *Store) InsertVote(ctx context.Context, v *models.Vote) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.InsertVote(ctx, v) })
}

func (s *Store) SetVoteValue(ctx context.Context, voteID string, value models.VoteValue, at time.Time) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.SetVoteValue(ctx, voteID, value, at) })
}

func (s *Store) DeleteVote(ctx context.Context, voteID string) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.DeleteVote(ctx, voteID) })
}

func (s *Store) AdjustVoteCount(ctx context.Context, questionID string, delta int) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.AdjustVoteCount(ctx, questionID, delta) })
}

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.CreateAnswer(ctx, a) })
}

func (s *Store) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	return single(s, ctx, func(tx store.Tx) ([]models.Answer, error) { return tx.ListAnswers(ctx, questionID) })
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.CreateComment(ctx, c) })
}

func (s *Store) ListComments(ctx context.Context, questionID string) ([]models.Comment, error) {
	return single(s, ctx, func(tx store.Tx) ([]models.Comment, error) { return tx.ListComments(ctx, questionID) })
}

func (s *Store) GetComment(ctx context.Context, id string) (models.Comment, error) {
	return single(s, ctx, func(tx store.Tx) (models.Comment, error) { return tx.GetComment(ctx, id) })
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.DeleteComment(ctx, id) })
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.exec(ctx, func(tx store.Tx) error { return tx.CreateUser(ctx, u) })
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return single(s, ctx, func(tx store.Tx) (models.User, error) { return tx.GetUser(ctx, id) })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return single(s, ctx, func(tx store.Tx) (models.User, error) { return tx.GetUserByEmail(ctx, email) })
}

var _ store.Store = (*Store)(nil)
