// Package accounts registers users and signs them in.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/models"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

type Service struct {
	store  store.Store
	tokens *auth.Tokens
	logger *slog.Logger
}

func NewService(s store.Store, tokens *auth.Tokens, logger *slog.Logger) *Service {
	logger = logging.ResolveLogger(logger)
	return &Service{store: s, tokens: tokens, logger: logger}
}

// Profile is the public view of a user.
type Profile struct {
	User          models.User `json:"user"`
	QuestionCount int64       `json:"question_count"`
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return models.AuthResponse{}, errorz.Validation("username and email are required")
	}
	if len(req.Password) < 6 {
		return models.AuthResponse{}, errorz.Validation("password must be at least 6 characters")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.AuthResponse{}, err
	}
	user := models.User{Username: username, Email: email, Password: hashed}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, errorz.ErrConflict) {
			return models.AuthResponse{}, errorz.Conflict("username or email already exists")
		}
		return models.AuthResponse{}, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return models.AuthResponse{}, err
	}
	s.logger.Info("user registered", "event", "user_registered", "user_id", user.ID)
	return models.AuthResponse{Token: token, User: user, Message: "User registered successfully"}, nil
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, errorz.ErrNotFound) {
		return models.AuthResponse{}, errorz.ErrUnauthenticated
	}
	if err != nil {
		return models.AuthResponse{}, err
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		s.logger.Warn("login rejected", "event", "login_rejected", "user_id", user.ID)
		return models.AuthResponse{}, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{Token: token, User: user, Message: "Login successful"}, nil
}

func (s *Service) Me(ctx context.Context, caller auth.Caller) (models.User, error) {
	if err := caller.Require(); err != nil {
		return models.User{}, err
	}
	user, err := s.store.GetUser(ctx, caller.UserID)
	if errors.Is(err, errorz.ErrNotFound) {
		// The token outlived its user.
		return models.User{}, errorz.ErrUnauthenticated
	}
	return user, err
}

func (s *Service) Profile(ctx context.Context, caller auth.Caller, userID string) (Profile, error) {
	if err := caller.Require(); err != nil {
		return Profile{}, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	n, err := s.store.CountQuestionsByUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: user, QuestionCount: n}, nil
}
