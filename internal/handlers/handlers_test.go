package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
)

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		errorz.Validation("bad"):  http.StatusBadRequest,
		errorz.ErrUnauthenticated: http.StatusUnauthorized,
		errorz.Forbidden("no"):    http.StatusForbidden,
		errorz.NotFound("thing"):  http.StatusNotFound,
		errorz.Conflict("dup"):    http.StatusConflict,
		errors.New("disk full"):   http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusOf(err), err.Error())
	}
}

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestListParams(t *testing.T) {
	c := testContext("/api/questions?company=Acme&company=Globex&location=Berlin&role=SWE" +
		"&type=coding&type=BEHAVIORAL&sortType=top&sortOrder=asc&limit=5&cursor=abc" +
		"&startDate=2024-01-01T00:00:00Z&endDate=2024-02-01T00:00:00Z")

	p, err := listParams(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, p.CompanyNames)
	assert.Equal(t, []string{"Berlin"}, p.Locations)
	assert.Equal(t, []string{"SWE"}, p.Roles)
	assert.Equal(t, []models.QuestionType{models.QuestionTypeCoding, models.QuestionTypeBehavioral}, p.QuestionTypes)
	assert.Equal(t, pagination.SortTop, p.SortType)
	assert.Equal(t, pagination.SortAsc, p.SortOrder)
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, "abc", p.Cursor)
	require.NotNil(t, p.StartDate)
	assert.True(t, p.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, p.EndDate)
}

func TestListParamsDefaultsAndErrors(t *testing.T) {
	p, err := listParams(testContext("/api/questions"))
	require.NoError(t, err)
	assert.Empty(t, p.CompanyNames)
	assert.Empty(t, p.QuestionTypes)
	assert.Zero(t, p.Limit)
	assert.Nil(t, p.StartDate)
	assert.Nil(t, p.EndDate)
	assert.Empty(t, p.SortType)

	for _, target := range []string{
		"/api/questions?limit=0",
		"/api/questions?limit=ten",
		"/api/questions?startDate=yesterday",
		"/api/questions?endDate=2024-13-01",
	} {
		_, err := listParams(testContext(target))
		assert.ErrorIs(t, err, errorz.ErrValidation, target)
	}
}

func TestErrorWriterHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	errorWriter{logger: slog.New(slog.DiscardHandler)}.write(c, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}
