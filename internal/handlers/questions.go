package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/middleware"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/pagination"
	"github.com/emilythestrangee/question-board/backend/internal/questions"
)

type QuestionHandler struct {
	questions *questions.Service
	errs      errorWriter
}

// GetQuestions returns one page of the filtered question list
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	page, err := h.questions.List(c.Request.Context(), middleware.CallerFrom(c), params)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// listParams reads repeated filter keys (?company=A&company=B) and the
// paging parameters from the query string.
func listParams(c *gin.Context) (pagination.Params, error) {
	p := pagination.Params{
		CompanyNames: c.QueryArray("company"),
		Locations:    c.QueryArray("location"),
		Roles:        c.QueryArray("role"),
		SortType:     pagination.SortType(strings.ToUpper(c.Query("sortType"))),
		SortOrder:    pagination.SortOrder(strings.ToUpper(c.Query("sortOrder"))),
		Cursor:       c.Query("cursor"),
	}
	for _, t := range c.QueryArray("type") {
		p.QuestionTypes = append(p.QuestionTypes, models.QuestionType(strings.ToUpper(t)))
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pagination.Params{}, errorz.Validation("limit must be a positive integer")
		}
		p.Limit = n
	}

	var err error
	if p.StartDate, err = queryTime(c, "startDate"); err != nil {
		return pagination.Params{}, err
	}
	if p.EndDate, err = queryTime(c, "endDate"); err != nil {
		return pagination.Params{}, err
	}
	return p, nil
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errorz.Validation("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// SearchQuestions returns questions related to the free text in ?q=
func (h *QuestionHandler) SearchQuestions(c *gin.Context) {
	hits, err := h.questions.SearchRelated(c.Request.Context(), middleware.CallerFrom(c), c.Query("q"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

// GetQuestion returns a single question by ID
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	view, err := h.questions.Get(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateQuestion creates a question with its first encounter
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}

	view, err := h.questions.Create(c.Request.Context(), middleware.CallerFrom(c), questions.CreateInput{
		Content:     input.Content,
		Type:        models.QuestionType(strings.ToUpper(string(input.Type))),
		CompanyName: input.CompanyName,
		Location:    input.Location,
		Role:        input.Role,
		SeenAt:      input.SeenAt,
	})
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateQuestion updates a question (only by the author)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var input models.UpdateQuestionRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}

	view, err := h.questions.Update(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), questions.UpdateInput{
		Content: input.Content,
		Type:    input.Type,
	})
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteQuestion deletes a question (only by the author)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	view, err := h.questions.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddEncounter reports another sighting of a question
func (h *QuestionHandler) AddEncounter(c *gin.Context) {
	var input models.CreateEncounterRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}

	view, err := h.questions.AddEncounter(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), questions.EncounterInput{
		CompanyName: input.CompanyName,
		Location:    input.Location,
		Role:        input.Role,
		SeenAt:      input.SeenAt,
	})
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}
