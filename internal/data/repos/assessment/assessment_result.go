package assessment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

// AssessmentResultRepo is append-only: results are never updated.
type AssessmentResultRepo interface {
	Create(dbc dbctx.Context, res *types.AssessmentResult) error
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.AssessmentResult, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AssessmentResult, error)
}

type assessmentResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentResultRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentResultRepo {
	repoLog := baseLog.With("repo", "AssessmentResultRepo")
	return &assessmentResultRepo{db: db, log: repoLog}
}

func (r *assessmentResultRepo) Create(dbc dbctx.Context, res *types.AssessmentResult) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	return dbFor(dbc, r.db).Create(res).Error
}

func (r *assessmentResultRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.AssessmentResult, error) {
	var out types.AssessmentResult
	err := dbFor(dbc, r.db).Where("session_id = ?", sessionID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assessmentResultRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AssessmentResult, error) {
	var out []*types.AssessmentResult
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if err := dbFor(dbc, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
