package votes

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/store/memory"
)

type fixture struct {
	store    *memory.Store
	svc      *Service
	question models.Question
	users    []auth.Caller
}

func newFixture(t *testing.T, voters int) fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	var callers []auth.Caller
	for i := 0; i <= voters; i++ {
		u := models.User{Username: "user" + string(rune('a'+i)), Email: string(rune('a'+i)) + "@example.com"}
		require.NoError(t, st.CreateUser(ctx, &u))
		callers = append(callers, auth.Caller{UserID: u.ID})
	}

	now := time.Now().UTC()
	q := models.Question{Content: "Reverse a linked list", Type: models.QuestionTypeCoding, UserID: callers[0].UserID, LastSeenAt: now}
	e := models.Encounter{Location: "Remote", Role: "SWE", SeenAt: now, UserID: callers[0].UserID}
	require.NoError(t, st.CreateQuestion(ctx, &q, &e, "Acme"))

	return fixture{store: st, svc: NewService(st, nil), question: q, users: callers[1:]}
}

// counterMatchesLedger asserts the denormalized counter equals the ledger sum
// and returns it.
func (f fixture) counterMatchesLedger(t *testing.T) int {
	t.Helper()
	q, err := f.store.GetQuestion(context.Background(), f.question.ID)
	require.NoError(t, err)
	sum := 0
	for _, v := range q.Votes {
		sum += v.Value.Contribution()
	}
	require.Equal(t, sum, q.NumVotes, "counter drifted from ledger")
	return q.NumVotes
}

func TestDeltas(t *testing.T) {
	assert.Equal(t, -2, UpdateDelta(models.VoteUp, models.VoteDown))
	assert.Equal(t, 2, UpdateDelta(models.VoteDown, models.VoteUp))
	assert.Equal(t, 0, UpdateDelta(models.VoteUp, models.VoteUp))
	assert.Equal(t, -1, DeleteDelta(models.VoteUp))
	assert.Equal(t, 1, DeleteDelta(models.VoteDown))
}

func TestCreateThenDeleteRestoresCounter(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteDown)
	require.NoError(t, err)
	before := f.counterMatchesLedger(t)

	for _, value := range []models.VoteValue{models.VoteUp, models.VoteDown} {
		v, err := f.svc.Create(ctx, f.users[1], f.question.ID, value)
		require.NoError(t, err)
		assert.Equal(t, before+value.Contribution(), f.counterMatchesLedger(t))

		_, err = f.svc.Delete(ctx, f.users[1], v.ID)
		require.NoError(t, err)
		assert.Equal(t, before, f.counterMatchesLedger(t))
	}
}

func TestUpdateFlipsByTwo(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, f.counterMatchesLedger(t))

	v, err = f.svc.Update(ctx, f.users[0], v.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteDown, v.Value)
	assert.Equal(t, -1, f.counterMatchesLedger(t))

	v, err = f.svc.Update(ctx, f.users[0], v.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, f.counterMatchesLedger(t))
}

func TestUpdateSameValueDoesNotDrift(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteDown)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := f.svc.Update(ctx, f.users[0], v.ID, models.VoteDown)
		require.NoError(t, err)
		assert.Equal(t, models.VoteDown, got.Value)
		assert.Equal(t, -1, f.counterMatchesLedger(t))
	}
}

func TestNonOwnerIsForbiddenAndNothingChanges(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteUp)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.users[1], v.ID, models.VoteDown)
	assert.ErrorIs(t, err, errorz.ErrForbidden)
	_, err = f.svc.Delete(ctx, f.users[1], v.ID)
	assert.ErrorIs(t, err, errorz.ErrForbidden)

	assert.Equal(t, 1, f.counterMatchesLedger(t))
	stored, err := f.svc.Get(ctx, f.users[0], f.question.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.VoteUp, stored.Value)
}

func TestDuplicateVoteConflicts(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteDown)
	assert.ErrorIs(t, err, errorz.ErrConflict)
	assert.Equal(t, 1, f.counterMatchesLedger(t))
}

func TestMissingTargets(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.users[0], "00000000-0000-0000-0000-000000000000", models.VoteUp)
	assert.ErrorIs(t, err, errorz.ErrNotFound)
	_, err = f.svc.Update(ctx, f.users[0], "missing", models.VoteUp)
	assert.ErrorIs(t, err, errorz.ErrNotFound)
	_, err = f.svc.Delete(ctx, f.users[0], "missing")
	assert.ErrorIs(t, err, errorz.ErrNotFound)

	v, err := f.svc.Get(ctx, f.users[0], f.question.ID)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRequiresCaller(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, auth.Caller{}, f.question.ID, models.VoteUp)
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)
	_, err = f.svc.Update(ctx, auth.Caller{}, "x", models.VoteUp)
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)
	_, err = f.svc.Delete(ctx, auth.Caller{}, "x")
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)
	_, err = f.svc.Get(ctx, auth.Caller{}, f.question.ID)
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)
}

func TestRejectsUnknownValue(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Create(context.Background(), f.users[0], f.question.ID, "SIDEWAYS")
	assert.ErrorIs(t, err, errorz.ErrValidation)
}

func TestFailedCounterWriteRollsBackLedger(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	boom := errors.New("connection reset")

	f.store.FailNext("AdjustVoteCount", boom)
	_, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteUp)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.counterMatchesLedger(t))
	v, err := f.svc.Get(ctx, f.users[0], f.question.ID)
	require.NoError(t, err)
	assert.Nil(t, v, "ledger row must not survive a failed transaction")

	created, err := f.svc.Create(ctx, f.users[0], f.question.ID, models.VoteUp)
	require.NoError(t, err)

	f.store.FailNext("AdjustVoteCount", boom)
	_, err = f.svc.Update(ctx, f.users[0], created.ID, models.VoteDown)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.counterMatchesLedger(t))

	f.store.FailNext("AdjustVoteCount", boom)
	_, err = f.svc.Delete(ctx, f.users[0], created.ID)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.counterMatchesLedger(t))
}

func TestRandomSequencesKeepCounterInSync(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	values := []models.VoteValue{models.VoteUp, models.VoteDown}
	held := map[string]string{}

	for step := 0; step < 300; step++ {
		caller := f.users[rng.Intn(len(f.users))]
		voteID, has := held[caller.UserID]
		value := values[rng.Intn(2)]

		switch {
		case !has:
			v, err := f.svc.Create(ctx, caller, f.question.ID, value)
			require.NoError(t, err)
			held[caller.UserID] = v.ID
		case rng.Intn(2) == 0:
			_, err := f.svc.Update(ctx, caller, voteID, value)
			require.NoError(t, err)
		default:
			_, err := f.svc.Delete(ctx, caller, voteID)
			require.NoError(t, err)
			delete(held, caller.UserID)
		}
		f.counterMatchesLedger(t)
	}
}

func TestConcurrentVotesNeverLoseUpdates(t *testing.T) {
	f := newFixture(t, 8)
	ctx := context.Background()

	done := make(chan error, len(f.users))
	for i, caller := range f.users {
		value := models.VoteUp
		if i%3 == 0 {
			value = models.VoteDown
		}
		go func(caller auth.Caller, value models.VoteValue) {
			v, err := f.svc.Create(ctx, caller, f.question.ID, value)
			if err == nil && value == models.VoteDown {
				_, err = f.svc.Update(ctx, caller, v.ID, models.VoteUp)
			}
			done <- err
		}(caller, value)
	}
	for range f.users {
		require.NoError(t, <-done)
	}
	assert.Equal(t, len(f.users), f.counterMatchesLedger(t))
}
