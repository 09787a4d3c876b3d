package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionAbandoned SessionStatus = "ABANDONED"
)

// ExamSession is one user's frozen attempt at a process exam.
// At most one ACTIVE row may exist per (user_id, process); see db.EnsureExamIndexes.
type ExamSession struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_exam_session_user_process,priority:1" json:"user_id"`
	Process       string         `gorm:"column:process;not null;index:idx_exam_session_user_process,priority:2" json:"process"`
	Status        SessionStatus  `gorm:"column:status;not null;index" json:"status"`
	RulesSnapshot datatypes.JSON `gorm:"column:rules_snapshot;not null" json:"rules_snapshot"`
	StartedAt     time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt       *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ExamSession) TableName() string { return "exam_session" }

func (s *ExamSession) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Process = NormalizeProcess(s.Process)
	return nil
}

// SessionQuestion pins one bank question into a session at a fixed position.
type SessionQuestion struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID  uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_session_question_pair,priority:1" json:"session_id"`
	QuestionID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_session_question_pair,priority:2" json:"question_id"`
	Category   CategoryKey `gorm:"column:category;not null" json:"category"`
	Position   int         `gorm:"column:position;not null" json:"position"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (SessionQuestion) TableName() string { return "session_question" }

func (q *SessionQuestion) BeforeCreate(_ *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// SessionAnswer is the latest answer for one (session, question) pair.
type SessionAnswer struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_session_answer_pair,priority:1" json:"session_id"`
	QuestionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_session_answer_pair,priority:2" json:"question_id"`
	Category   CategoryKey    `gorm:"column:category;not null" json:"category"`
	Answer     datatypes.JSON `gorm:"column:answer" json:"answer"`
	IsCorrect  bool           `gorm:"column:is_correct;not null" json:"is_correct"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (SessionAnswer) TableName() string { return "session_answer" }

func (a *SessionAnswer) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
