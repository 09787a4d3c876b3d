package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	// FindByProcess returns the live bank of a process; a non-empty category narrows it.
	FindByProcess(dbc dbctx.Context, process string, category types.CategoryKey) ([]*types.Question, error)
	// GetByIDs includes soft-deleted rows so frozen sessions keep resolving.
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Question, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error)
	FindByProcessText(dbc dbctx.Context, process, text string) (*types.Question, error)
	Upsert(dbc dbctx.Context, q *types.Question) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	for _, q := range questions {
		if q != nil {
			q.CategoryKey = types.NormalizeCategory(q.Category)
		}
	}
	if err := dbFor(dbc, r.db).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) FindByProcess(dbc dbctx.Context, process string, category types.CategoryKey) ([]*types.Question, error) {
	var out []*types.Question
	process = types.NormalizeProcess(process)
	if process == "" {
		return out, nil
	}
	q := dbFor(dbc, r.db).Where("process = ?", process)
	if category != "" {
		q = q.Where("category_key = ?", category)
	}
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Question, error) {
	var out []*types.Question
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbFor(dbc, r.db).Unscoped().
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns nil, nil when the question does not exist.
func (r *questionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Question
	err := dbFor(dbc, r.db).Unscoped().Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *questionRepo) FindByProcessText(dbc dbctx.Context, process, text string) (*types.Question, error) {
	var out types.Question
	err := dbFor(dbc, r.db).
		Where("process = ? AND text = ?", types.NormalizeProcess(process), strings.TrimSpace(text)).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert writes q by primary key, replacing its content columns.
func (r *questionRepo) Upsert(dbc dbctx.Context, q *types.Question) error {
	if q == nil {
		return fmt.Errorf("nil question")
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.Process = types.NormalizeProcess(q.Process)
	q.CategoryKey = types.NormalizeCategory(q.Category)
	return dbFor(dbc, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"process", "category", "category_key", "type", "text", "options", "correct_answer", "updated_at",
			}),
		}).
		Create(q).Error
}
