package assessment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type TopicRuleRepo interface {
	// FindByProcess returns the rules of a process in selection order.
	FindByProcess(dbc dbctx.Context, process string) ([]*types.TopicRule, error)
	Upsert(dbc dbctx.Context, rule *types.TopicRule) (*types.TopicRule, error)
	DeleteByCategory(dbc dbctx.Context, process string, category types.CategoryKey) (bool, error)
}

type topicRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRuleRepo(db *gorm.DB, baseLog *logger.Logger) TopicRuleRepo {
	repoLog := baseLog.With("repo", "TopicRuleRepo")
	return &topicRuleRepo{db: db, log: repoLog}
}

func (r *topicRuleRepo) FindByProcess(dbc dbctx.Context, process string) ([]*types.TopicRule, error) {
	var out []*types.TopicRule
	process = types.NormalizeProcess(process)
	if process == "" {
		return out, nil
	}
	if err := dbFor(dbc, r.db).
		Where("process = ?", process).
		Order("sort_order ASC, category_key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert keys on (process, category_key) and returns the stored row.
func (r *topicRuleRepo) Upsert(dbc dbctx.Context, rule *types.TopicRule) (*types.TopicRule, error) {
	if rule == nil {
		return nil, fmt.Errorf("nil rule")
	}
	rule.Process = types.NormalizeProcess(rule.Process)
	rule.Category = strings.TrimSpace(rule.Category)
	rule.CategoryKey = types.NormalizeCategory(rule.Category)
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.UpdatedAt = time.Now().UTC()
	q := dbFor(dbc, r.db)
	if err := q.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "process"}, {Name: "category_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category", "min_attempt", "max_display", "required_attempt", "sort_order", "updated_at",
		}),
	}).Create(rule).Error; err != nil {
		return nil, err
	}
	var out types.TopicRule
	if err := q.Where("process = ? AND category_key = ?", rule.Process, rule.CategoryKey).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *topicRuleRepo) DeleteByCategory(dbc dbctx.Context, process string, category types.CategoryKey) (bool, error) {
	res := dbFor(dbc, r.db).
		Where("process = ? AND category_key = ?", types.NormalizeProcess(process), category).
		Delete(&types.TopicRule{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
