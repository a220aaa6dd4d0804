package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/question-board/backend/internal/config"
	"github.com/emilythestrangee/question-board/backend/internal/logging"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

// Database wraps the gorm handle and the pgx pool beneath it.
type Database struct {
	gorm   *gorm.DB
	sqlDB  *sql.DB
	name   string
	logger *slog.Logger
}

// Open connects through the pgx stdlib driver and hands the pool to gorm.
func Open(cfg config.Database, log *slog.Logger) (*Database, error) {
	log = logging.ResolveLogger(log)

	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogSQL),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("error initializing gorm: %w", err)
	}

	log.Info("database connected", "event", "database_connected", "database", cfg.Name)

	return &Database{gorm: db, sqlDB: sqlDB, name: cfg.Name, logger: log}, nil
}

func gormLogLevel(logSQL bool) logger.LogLevel {
	if logSQL {
		return logger.Info
	}
	return logger.Warn
}

func (d *Database) GetDB() *gorm.DB {
	return d.gorm
}

// Migrate creates or updates the tables, then the full-text search column
// and its index, which AutoMigrate cannot express.
func (d *Database) Migrate(ctx context.Context) error {
	db := d.gorm.WithContext(ctx)
	err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Question{},
		&models.Encounter{},
		&models.Vote{},
		&models.Answer{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("error migrating tables: %w", err)
	}

	statements := []string{
		`ALTER TABLE questions ADD COLUMN IF NOT EXISTS search_vector tsvector
			GENERATED ALWAYS AS (to_tsvector('english', coalesce(content, ''))) STORED`,
		`CREATE INDEX IF NOT EXISTS idx_questions_search_vector ON questions USING GIN (search_vector)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_votes_id ON questions (num_votes, id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_last_seen_id ON questions (last_seen_at, id)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error applying migration: %w", err)
		}
	}

	d.logger.Info("database migrations completed", "event", "database_migrated")
	return nil
}

// Health checks the health of the database connection by pinging the database.
func (d *Database) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := d.sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := d.sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (d *Database) Close() error {
	d.logger.Info("disconnected from database", "event", "database_closed", "database", d.name)
	return d.sqlDB.Close()
}
