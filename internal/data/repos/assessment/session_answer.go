package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type SessionAnswerRepo interface {
	// Upsert keys on (session_id, question_id); a repeat submission overwrites.
	Upsert(dbc dbctx.Context, a *types.SessionAnswer) error
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SessionAnswer, error)
	Get(dbc dbctx.Context, sessionID, questionID uuid.UUID) (*types.SessionAnswer, error)
}

type sessionAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionAnswerRepo(db *gorm.DB, baseLog *logger.Logger) SessionAnswerRepo {
	repoLog := baseLog.With("repo", "SessionAnswerRepo")
	return &sessionAnswerRepo{db: db, log: repoLog}
}

func (r *sessionAnswerRepo) Upsert(dbc dbctx.Context, a *types.SessionAnswer) error {
	if a == nil {
		return fmt.Errorf("nil answer")
	}
	if a.SessionID == uuid.Nil || a.QuestionID == uuid.Nil {
		return fmt.Errorf("answer requires session_id and question_id")
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	return dbFor(dbc, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "category", "is_correct", "updated_at"}),
		}).
		Create(a).Error
}

func (r *sessionAnswerRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SessionAnswer, error) {
	var out []*types.SessionAnswer
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := dbFor(dbc, r.db).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionAnswerRepo) Get(dbc dbctx.Context, sessionID, questionID uuid.UUID) (*types.SessionAnswer, error) {
	var out types.SessionAnswer
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
