package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionFreeText     QuestionType = "free_text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiSelect, QuestionFreeText:
		return true
	default:
		return false
	}
}

// Question is a bank item. CorrectAnswer holds a JSON string for single_choice,
// a JSON string array for multi_select, and a string or string array of
// accepted answers for free_text.
type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Process       string         `gorm:"column:process;not null;index:idx_question_process_category,priority:1" json:"process"`
	Category      string         `gorm:"column:category;not null" json:"category"`
	CategoryKey   CategoryKey    `gorm:"column:category_key;not null;index:idx_question_process_category,priority:2" json:"category_key"`
	Type          QuestionType   `gorm:"column:type;not null" json:"type"`
	Text          string         `gorm:"column:text;not null" json:"text"`
	Options       datatypes.JSON `gorm:"column:options" json:"options,omitempty"`
	CorrectAnswer datatypes.JSON `gorm:"column:correct_answer" json:"-"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(_ *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.Process = NormalizeProcess(q.Process)
	if q.CategoryKey == "" {
		q.CategoryKey = NormalizeCategory(q.Category)
	}
	return nil
}
