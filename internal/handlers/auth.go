package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/accounts"
	"github.com/emilythestrangee/question-board/backend/internal/middleware"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

type AuthHandler struct {
	accounts *accounts.Service
	errs     errorWriter
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}

	resp, err := h.accounts.Register(c.Request.Context(), input)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles email/password login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := bind(c, &input); err != nil {
		h.errs.write(c, err)
		return
	}

	resp, err := h.accounts.Login(c.Request.Context(), input)
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.accounts.Me(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		h.errs.write(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
