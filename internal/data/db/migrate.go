package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/assessment-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureExamIndexes creates the indexes GORM tags cannot express.
// Both Postgres and SQLite support partial unique indexes.
func EnsureExamIndexes(db *gorm.DB) error {
	// At most one ACTIVE session per (user, process).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_session_one_active
		ON exam_session (user_id, process)
		WHERE status = 'ACTIVE';
	`).Error; err != nil {
		return fmt.Errorf("create idx_exam_session_one_active: %w", err)
	}

	// Frozen order lookups.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_session_question_session_position
		ON session_question (session_id, position);
	`).Error; err != nil {
		return fmt.Errorf("create idx_session_question_session_position: %w", err)
	}

	// Result history per user.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_assessment_result_user_created
		ON assessment_result (user_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_assessment_result_user_created: %w", err)
	}

	// Rule listing in display order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_topic_rule_process_order
		ON topic_rule (process, sort_order);
	`).Error; err != nil {
		return fmt.Errorf("create idx_topic_rule_process_order: %w", err)
	}
	return nil
}
