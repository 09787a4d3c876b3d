package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQLiteService opens a single-writer SQLite database at path. Use
// "file:<name>?mode=memory&cache=shared" for an isolated in-memory database.
func NewSQLiteService(logg *logger.Logger, path string, quiet bool) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")
	cfg := gormConfig()
	if quiet {
		cfg.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec(`PRAGMA foreign_keys = ON;`).Error; err != nil {
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }
