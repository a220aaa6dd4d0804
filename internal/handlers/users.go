package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/accounts"
	"github.com/emilythestrangee/question-board/backend/internal/middleware"
)

type UserHandler struct {
	accounts *accounts.Service
	errs     errorWriter
}

// GetUserProfile returns a user's public profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	profile, err := h.accounts.Profile(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
