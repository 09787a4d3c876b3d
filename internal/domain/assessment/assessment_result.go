package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ResultMode string

const (
	// ResultModeSession is written by session completion (plain percentage scoring).
	ResultModeSession ResultMode = "session"
	// ResultModeTest is written by the standalone test flow (negative marking).
	ResultModeTest ResultMode = "test"
)

type ResultStatus string

const (
	ResultPassed ResultStatus = "PASSED"
	ResultFailed ResultStatus = "FAILED"
)

// AssessmentResult is an append-only scoring summary.
type AssessmentResult struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Process    string         `gorm:"column:process;not null" json:"process"`
	SessionID  *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"session_id,omitempty"`
	Mode       ResultMode     `gorm:"column:mode;not null" json:"mode"`
	Score      float64        `gorm:"column:score;not null" json:"score"`
	Correct    int            `gorm:"column:correct;not null" json:"correct"`
	Wrong      int            `gorm:"column:wrong;not null" json:"wrong"`
	Total      int            `gorm:"column:total;not null" json:"total"`
	Percentage float64        `gorm:"column:percentage;not null" json:"percentage"`
	Status     ResultStatus   `gorm:"column:status;not null" json:"status"`
	Answers    datatypes.JSON `gorm:"column:answers" json:"answers"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (AssessmentResult) TableName() string { return "assessment_result" }

func (r *AssessmentResult) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Process = NormalizeProcess(r.Process)
	return nil
}
