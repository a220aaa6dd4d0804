package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/emilythestrangee/question-board/backend/internal/config"
	"github.com/emilythestrangee/question-board/backend/internal/database"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
	"github.com/emilythestrangee/question-board/backend/internal/store"
	"github.com/emilythestrangee/question-board/backend/internal/store/memory"
)

func startDatabase(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("board"),
		tcpostgres.WithUsername("board"),
		tcpostgres.WithPassword("board"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	db, err := database.Open(config.Database{URL: dsn, Name: "board"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestPostgresStore(t *testing.T) {
	db := startDatabase(t)
	logger := slog.New(slog.DiscardHandler)

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, db.GetDB().Exec(
			"TRUNCATE comments, answers, votes, encounters, questions, companies, users CASCADE").Error)
	}

	t.Run("keyset pages match the in-memory store", func(t *testing.T) {
		reset(t)
		pg := New(db.GetDB(), logger)
		mem := memory.New()
		seedBoth(t, pg, mem)

		for _, sortType := range []pagination.SortType{pagination.SortNew, pagination.SortTop} {
			for _, order := range []pagination.SortOrder{pagination.SortAsc, pagination.SortDesc} {
				params := pagination.Params{SortType: sortType, SortOrder: order, Limit: 3}
				want := walk(t, mem, params)
				got := walk(t, pg, params)
				assert.Len(t, got, 12, "%s %s", sortType, order)
				assert.Equal(t, want, got, "%s %s", sortType, order)
			}
		}

		filtered := pagination.Params{CompanyNames: []string{"Globex"}, QuestionTypes: []models.QuestionType{models.QuestionTypeCoding}, Limit: 2}
		assert.Equal(t, walk(t, mem, filtered), walk(t, pg, filtered))
	})

	t.Run("votes and counter", func(t *testing.T) {
		reset(t)
		pg := New(db.GetDB(), logger)
		ctx := context.Background()
		user, q := seedQuestion(t, pg, "Two sum")

		v := models.Vote{QuestionID: q.ID, UserID: user.ID, Value: models.VoteUp}
		require.NoError(t, pg.InTx(ctx, func(tx store.Tx) error {
			if err := tx.InsertVote(ctx, &v); err != nil {
				return err
			}
			return tx.AdjustVoteCount(ctx, q.ID, 1)
		}))

		dup := models.Vote{QuestionID: q.ID, UserID: user.ID, Value: models.VoteDown}
		assert.ErrorIs(t, pg.InsertVote(ctx, &dup), errorz.ErrConflict)

		boom := errors.New("abort")
		err := pg.InTx(ctx, func(tx store.Tx) error {
			locked, err := tx.LockVote(ctx, v.ID)
			require.NoError(t, err)
			require.NoError(t, tx.SetVoteValue(ctx, locked.ID, models.VoteDown, time.Now()))
			require.NoError(t, tx.AdjustVoteCount(ctx, q.ID, -2))
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := pg.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.NumVotes)
		require.Len(t, got.Votes, 1)
		assert.Equal(t, models.VoteUp, got.Votes[0].Value)

		found, ok, err := pg.FindVote(ctx, q.ID, user.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, v.ID, found.ID)

		_, err = pg.LockVote(ctx, uuid.NewString())
		assert.ErrorIs(t, err, errorz.ErrNotFound)
		assert.ErrorIs(t, pg.AdjustVoteCount(ctx, uuid.NewString(), 1), errorz.ErrNotFound)
		orphan := models.Vote{QuestionID: uuid.NewString(), UserID: user.ID, Value: models.VoteUp}
		assert.ErrorIs(t, pg.InsertVote(ctx, &orphan), errorz.ErrNotFound)
	})

	t.Run("lookups of malformed ids are not found", func(t *testing.T) {
		reset(t)
		pg := New(db.GetDB(), logger)
		_, err := pg.GetQuestion(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, errorz.ErrNotFound)
	})

	t.Run("encounters raise last seen and counts load", func(t *testing.T) {
		reset(t)
		pg := New(db.GetDB(), logger)
		ctx := context.Background()
		user, q := seedQuestion(t, pg, "Design a cache")

		later := q.LastSeenAt.Add(time.Hour)
		require.NoError(t, pg.AddEncounter(ctx, &models.Encounter{QuestionID: q.ID, Location: "Berlin", Role: "SRE", SeenAt: later, UserID: user.ID}, "Globex"))
		require.NoError(t, pg.AddEncounter(ctx, &models.Encounter{QuestionID: q.ID, Location: "Berlin", Role: "SRE", SeenAt: later.Add(-48 * time.Hour), UserID: user.ID}, "Globex"))
		require.NoError(t, pg.CreateAnswer(ctx, &models.Answer{QuestionID: q.ID, UserID: user.ID, Content: "LRU"}))
		require.NoError(t, pg.CreateComment(ctx, &models.Comment{QuestionID: q.ID, UserID: user.ID, Body: "nice"}))

		got, err := pg.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.True(t, got.LastSeenAt.Equal(later))
		assert.Len(t, got.Encounters, 3)
		assert.Equal(t, 1, got.NumAnswers)
		assert.Equal(t, 1, got.NumComments)

		err = pg.AddEncounter(ctx, &models.Encounter{QuestionID: uuid.NewString(), Location: "X", Role: "Y", SeenAt: later, UserID: user.ID}, "Acme")
		assert.ErrorIs(t, err, errorz.ErrNotFound)

		require.NoError(t, pg.InsertVote(ctx, &models.Vote{QuestionID: q.ID, UserID: user.ID, Value: models.VoteUp}))

		require.NoError(t, pg.DeleteQuestion(ctx, q.ID))
		_, err = pg.GetQuestion(ctx, q.ID)
		assert.ErrorIs(t, err, errorz.ErrNotFound)
		for _, table := range []string{"encounters", "votes", "answers", "comments"} {
			var n int64
			require.NoError(t, db.GetDB().Table(table).Where("question_id = ?", q.ID).Count(&n).Error)
			assert.Zero(t, n, table)
		}
		assert.ErrorIs(t, pg.DeleteQuestion(ctx, q.ID), errorz.ErrNotFound)
	})

	t.Run("full text search ranks and survives operators", func(t *testing.T) {
		reset(t)
		pg := New(db.GetDB(), logger)
		ctx := context.Background()
		_, lru := seedQuestion(t, pg, "Design an LRU cache")
		_, dist := seedQuestion(t, pg, "Design a distributed cache with replication")
		seedQuestion(t, pg, "Tell me about a conflict with a coworker")

		hits, err := pg.SearchQuestions(ctx, "distributed | caches")
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, dist.ID, hits[0].ID)
		assert.Equal(t, lru.ID, hits[1].ID)
		assert.Greater(t, hits[0].Rank, hits[1].Rank)

		hits, err = pg.SearchQuestions(ctx, "zebra")
		require.NoError(t, err)
		assert.NotNil(t, hits)
		assert.Empty(t, hits)
	})
}

var userSeq int

func seedQuestion(t *testing.T, s store.Store, content string) (models.User, models.Question) {
	t.Helper()
	ctx := context.Background()
	userSeq++
	u := models.User{Username: fmt.Sprintf("user%d", userSeq), Email: fmt.Sprintf("user%d@example.com", userSeq), Password: "x"}
	require.NoError(t, s.CreateUser(ctx, &u))

	seen := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	q := models.Question{Content: content, Type: models.QuestionTypeSystemDesign, UserID: u.ID, LastSeenAt: seen}
	e := models.Encounter{Location: "Remote", Role: "SWE", SeenAt: seen, UserID: u.ID}
	require.NoError(t, s.CreateQuestion(ctx, &q, &e, "Acme"))
	return u, q
}

// seedBoth writes identical rows, ids included, into both stores. Sort keys
// repeat so ties fall through to the id.
func seedBoth(t *testing.T, stores ...store.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	user := models.User{ID: uuid.NewString(), Username: "seed", Email: "seed@example.com", Password: "x"}
	companies := []string{"Acme", "Globex", "Initech"}
	types := []models.QuestionType{models.QuestionTypeCoding, models.QuestionTypeBehavioral}

	type row struct {
		q       models.Question
		e       models.Encounter
		company string
		votes   int
	}
	var rows []row
	for i := 0; i < 12; i++ {
		seen := base.Add(time.Duration(i/2) * time.Hour)
		rows = append(rows, row{
			q: models.Question{
				ID: uuid.NewString(), Content: fmt.Sprintf("question %d", i), Type: types[i%2],
				UserID: user.ID, LastSeenAt: seen,
			},
			e:       models.Encounter{ID: uuid.NewString(), Location: "Remote", Role: "SWE", SeenAt: seen, UserID: user.ID},
			company: companies[i%3],
			votes:   (i % 4) - 1,
		})
	}

	for _, s := range stores {
		u := user
		require.NoError(t, s.CreateUser(ctx, &u))
		for _, r := range rows {
			q, e := r.q, r.e
			require.NoError(t, s.CreateQuestion(ctx, &q, &e, r.company))
			require.NoError(t, s.AdjustVoteCount(ctx, q.ID, r.votes))
		}
	}
}

// walk pages through s with params and returns the ids in order.
func walk(t *testing.T, s store.Store, params pagination.Params) []string {
	t.Helper()
	now := time.Now().UTC()
	var ids []string
	for pages := 0; pages < 50; pages++ {
		q, err := params.Query(now, 100)
		require.NoError(t, err)
		rows, err := s.ListQuestions(context.Background(), q)
		require.NoError(t, err)
		rows, next := pagination.Split(q, rows, pagination.KeyOf)
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		if next == "" {
			return ids
		}
		params.Cursor = next
	}
	t.Fatal("pagination did not terminate")
	return nil
}
