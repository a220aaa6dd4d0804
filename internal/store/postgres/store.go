// Package postgres is the gorm-backed storage gateway.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/emilythestrangee/question-board/backend/internal/errorz"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/store"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB, logger *slog.Logger) *Store {
	logger = logging.ResolveLogger(logger)
	return &Store{db: db, logger: logger}
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, logger: s.logger})
	})
}

// translate maps driver errors onto errorz kinds. Unclassified errors are
// logged under event and returned as-is.
func (s *Store) translate(err error, what string, event string, attrs ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), isInvalidText(err):
		return errorz.NotFound(what)
	case isUniqueViolation(err):
		return errorz.Conflict("%s already exists", what)
	case isForeignKeyViolation(err):
		return errorz.NotFound(fmt.Sprintf("%s references a missing row", what))
	}
	s.logger.Error("store operation failed", append([]any{"event", event, "error", err.Error()}, attrs...)...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isInvalidText catches ids that are not valid uuids.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

var _ store.Store = (*Store)(nil)
