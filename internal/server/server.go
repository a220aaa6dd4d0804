package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/config"
	"github.com/emilythestrangee/question-board/backend/internal/handlers"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/middleware"
)

// HealthChecker reports the state of a backing service.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg     config.Config
	handler *handlers.Handler
	tokens  *auth.Tokens
	db      HealthChecker
	cache   Pinger
	logger  *slog.Logger
}

type Deps struct {
	Config  config.Config
	Handler *handlers.Handler
	Tokens  *auth.Tokens
	// DB and Cache are optional and only feed /health.
	DB     HealthChecker
	Cache  Pinger
	Logger *slog.Logger
}

func New(d Deps) *Server {
	logger := logging.ResolveLogger(d.Logger)
	return &Server{
		cfg:     d.Config,
		handler: d.Handler,
		tokens:  d.Tokens,
		db:      d.DB,
		cache:   d.Cache,
		logger:  logger,
	}
}

// HTTPServer wraps the routes in an http.Server listening on the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.logger))

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAll(origins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			// Question routes
			protected.GET("/questions", s.handler.Question.GetQuestions)
			protected.GET("/questions/search", s.handler.Question.SearchQuestions)
			protected.GET("/questions/:id", s.handler.Question.GetQuestion)
			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
			protected.POST("/questions/:id/encounters", s.handler.Question.AddEncounter)

			// Vote routes
			protected.GET("/questions/:id/vote", s.handler.Vote.GetVote)
			protected.POST("/questions/:id/votes", s.handler.Vote.CreateVote)
			protected.PUT("/votes/:voteId", s.handler.Vote.UpdateVote)
			protected.DELETE("/votes/:voteId", s.handler.Vote.DeleteVote)

			// Answer and comment routes
			protected.GET("/questions/:id/answers", s.handler.Comment.GetAnswers)
			protected.POST("/questions/:id/answers", s.handler.Comment.CreateAnswer)
			protected.GET("/questions/:id/comments", s.handler.Comment.GetComments)
			protected.POST("/questions/:id/comments", s.handler.Comment.CreateComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)

			// User routes
			protected.GET("/users/:id", s.handler.User.GetUserProfile)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK

	if s.db != nil {
		db := s.db.Health(c.Request.Context())
		body["database"] = db
		if db["status"] != "up" {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.cache.Ping(ctx); err != nil {
			// search still works without the cache
			body["cache"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			body["cache"] = gin.H{"status": "up"}
		}
	}
	c.JSON(status, body)
}

// allowsAll reports a wildcard origin, which browsers refuse to pair with
// credentials.
func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
