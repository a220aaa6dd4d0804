package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/middleware"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/questions"
)

// CommentHandler serves answers and comments on a question.
type CommentHandler struct {
	questions *questions.Service
	errs      errorWriter
}

func (h *CommentHandler) GetAnswers(c *gin.Context) {
	answers, err := h.questions.Answers(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (h *CommentHandler) CreateAnswer(c *gin.Context) {
	var input models.CreateAnswerRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}
	answer, err := h.questions.CreateAnswer(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), input.Content)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, answer)
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	comments, err := h.questions.Comments(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input models.CreateCommentRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}
	comment, err := h.questions.CreateComment(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), input.Body)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment deletes a comment (only by the author)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.questions.DeleteComment(c.Request.Context(), middleware.CallerFrom(c), c.Param("commentId")); err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
