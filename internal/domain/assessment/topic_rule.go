package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TopicRule configures one category of a process: how many questions to show
// and how many of them must be answered.
type TopicRule struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Process         string      `gorm:"column:process;not null;uniqueIndex:idx_topic_rule_process_category,priority:1" json:"process"`
	Category        string      `gorm:"column:category;not null" json:"category"`
	CategoryKey     CategoryKey `gorm:"column:category_key;not null;uniqueIndex:idx_topic_rule_process_category,priority:2" json:"category_key"`
	MinAttempt      int         `gorm:"column:min_attempt;not null;default:0" json:"min_attempt"`
	MaxDisplay      int         `gorm:"column:max_display;not null;default:0" json:"max_display"`
	RequiredAttempt *int        `gorm:"column:required_attempt" json:"required_attempt,omitempty"`
	Order           int         `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt       time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (TopicRule) TableName() string { return "topic_rule" }

func (r *TopicRule) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Process = NormalizeProcess(r.Process)
	if r.CategoryKey == "" {
		r.CategoryKey = NormalizeCategory(r.Category)
	}
	return nil
}
