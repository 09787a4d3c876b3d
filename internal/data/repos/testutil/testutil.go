package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/db"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens an isolated in-memory SQLite database migrated with the full schema.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	svc, err := db.NewSQLiteService(Logger(tb), dsn, true)
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	gdb := svc.DB()
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("automigrate: %v", err)
	}
	if err := db.EnsureExamIndexes(gdb); err != nil {
		tb.Fatalf("exam indexes: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
