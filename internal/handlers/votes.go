package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/middleware"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/votes"
)

type VoteHandler struct {
	votes *votes.Service
	errs  errorWriter
}

// GetVote returns the caller's vote on a question, or null
func (h *VoteHandler) GetVote(c *gin.Context) {
	vote, err := h.votes.Get(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

func (h *VoteHandler) CreateVote(c *gin.Context) {
	var input models.VoteRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}
	vote, err := h.votes.Create(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), input.Value)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}

func (h *VoteHandler) UpdateVote(c *gin.Context) {
	var input models.VoteRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}
	vote, err := h.votes.Update(c.Request.Context(), middleware.CallerFrom(c), c.Param("voteId"), input.Value)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

func (h *VoteHandler) DeleteVote(c *gin.Context) {
	vote, err := h.votes.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("voteId"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}
