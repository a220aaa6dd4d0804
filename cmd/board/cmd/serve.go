package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/question-board/backend/internal/accounts"
	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/cache"
	"github.com/emilythestrangee/question-board/backend/internal/database"
	"github.com/emilythestrangee/question-board/backend/internal/handlers"
	"github.com/emilythestrangee/question-board/backend/internal/questions"
	"github.com/emilythestrangee/question-board/backend/internal/server"
	"github.com/emilythestrangee/question-board/backend/internal/store/postgres"
	"github.com/emilythestrangee/question-board/backend/internal/votes"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrateOnStart {
		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
	}

	st := postgres.New(db.GetDB(), logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	qopts := questions.Options{
		Logger:       logger,
		MaxPageLimit: cfg.MaxPageLimit,
		CacheTTL:     cfg.Redis.CacheTTL,
	}
	deps := server.Deps{Config: cfg, Tokens: tokens, DB: db, Logger: logger}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		searchCache := cache.NewSearchCache(client)
		qopts.Cache = searchCache
		deps.Cache = searchCache
		logger.Info("search cache enabled", "event", "search_cache_enabled", "addr", cfg.Redis.Addr)
	}

	deps.Handler = handlers.NewHandler(handlers.Services{
		Accounts:  accounts.NewService(st, tokens, logger),
		Questions: questions.NewService(st, qopts),
		Votes:     votes.NewService(st, logger),
	}, logger)
	srv := server.New(deps).HTTPServer()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "event", "server_starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down", "event", "server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
