package assessment

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type SessionQuestionRepo interface {
	Create(dbc dbctx.Context, rows []*types.SessionQuestion) ([]*types.SessionQuestion, error)
	// ListBySession returns the frozen question list in position order.
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SessionQuestion, error)
	Get(dbc dbctx.Context, sessionID, questionID uuid.UUID) (*types.SessionQuestion, error)
	CountBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type sessionQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionQuestionRepo(db *gorm.DB, baseLog *logger.Logger) SessionQuestionRepo {
	repoLog := baseLog.With("repo", "SessionQuestionRepo")
	return &sessionQuestionRepo{db: db, log: repoLog}
}

func (r *sessionQuestionRepo) Create(dbc dbctx.Context, rows []*types.SessionQuestion) ([]*types.SessionQuestion, error) {
	if len(rows) == 0 {
		return []*types.SessionQuestion{}, nil
	}
	if err := dbFor(dbc, r.db).CreateInBatches(&rows, 200).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionQuestionRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SessionQuestion, error) {
	var out []*types.SessionQuestion
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := dbFor(dbc, r.db).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns nil, nil when the question is not part of the session.
func (r *sessionQuestionRepo) Get(dbc dbctx.Context, sessionID, questionID uuid.UUID) (*types.SessionQuestion, error) {
	if sessionID == uuid.Nil || questionID == uuid.Nil {
		return nil, nil
	}
	var out types.SessionQuestion
	err := dbFor(dbc, r.db).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionQuestionRepo) CountBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	if err := dbFor(dbc, r.db).
		Model(&types.SessionQuestion{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
