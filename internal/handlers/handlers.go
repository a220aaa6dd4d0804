package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/accounts"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/questions"
	"github.com/emilythestrangee/question-board/backend/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Vote     *VoteHandler
	Comment  *CommentHandler
	User     *UserHandler
}

// Services are what the handlers call into.
type Services struct {
	Accounts  *accounts.Service
	Questions *questions.Service
	Votes     *votes.Service
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	logger = logging.ResolveLogger(logger)
	errs := errorWriter{logger: logger}
	return &Handler{
		Auth:     &AuthHandler{accounts: svc.Accounts, errs: errs},
		Question: &QuestionHandler{questions: svc.Questions, errs: errs},
		Vote:     &VoteHandler{votes: svc.Votes, errs: errs},
		Comment:  &CommentHandler{questions: svc.Questions, errs: errs},
		User:     &UserHandler{accounts: svc.Accounts, errs: errs},
	}
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch errorz.Kind(err) {
	case errorz.ErrValidation:
		return http.StatusBadRequest
	case errorz.ErrUnauthenticated:
		return http.StatusUnauthorized
	case errorz.ErrForbidden:
		return http.StatusForbidden
	case errorz.ErrNotFound:
		return http.StatusNotFound
	case errorz.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorWriter struct {
	logger *slog.Logger
}

// write sends err to the client. Unclassified errors are logged and hidden.
func (w errorWriter) write(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		w.logger.Error("request failed",
			"event", "http_internal_error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err.Error(),
		)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bind decodes the JSON body into dst, reporting failures as validation.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errorz.Validation("%v", err)
	}
	return nil
}
