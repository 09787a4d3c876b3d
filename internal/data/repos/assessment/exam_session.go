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

type ExamSessionRepo interface {
	Create(dbc dbctx.Context, s *types.ExamSession) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ExamSession, error)
	// LockByID takes a write lock on the session row. Requires dbc.Tx.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ExamSession, error)
	// ShareByID takes a shared lock on the session row. Requires dbc.Tx.
	ShareByID(dbc dbctx.Context, id uuid.UUID) (*types.ExamSession, error)
	// LockActive returns the ACTIVE session of (user, process), locked, or nil.
	LockActive(dbc dbctx.Context, userID uuid.UUID, process string) (*types.ExamSession, error)
	CountActive(dbc dbctx.Context, userID uuid.UUID, process string) (int64, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ExamSession, error)
}

type examSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExamSessionRepo(db *gorm.DB, baseLog *logger.Logger) ExamSessionRepo {
	repoLog := baseLog.With("repo", "ExamSessionRepo")
	return &examSessionRepo{db: db, log: repoLog}
}

func (r *examSessionRepo) Create(dbc dbctx.Context, s *types.ExamSession) error {
	if s == nil {
		return fmt.Errorf("nil session")
	}
	return dbFor(dbc, r.db).Create(s).Error
}

// GetByID returns nil, nil when the session does not exist.
func (r *examSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ExamSession, error) {
	return r.take(dbFor(dbc, r.db), id)
}

func (r *examSessionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ExamSession, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	return r.take(withLock(dbFor(dbc, r.db), lockUpdate), id)
}

func (r *examSessionRepo) ShareByID(dbc dbctx.Context, id uuid.UUID) (*types.ExamSession, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("ShareByID required dbc.Tx")
	}
	return r.take(withLock(dbFor(dbc, r.db), lockShare), id)
}

func (r *examSessionRepo) take(q *gorm.DB, id uuid.UUID) (*types.ExamSession, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.ExamSession
	err := q.Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *examSessionRepo) LockActive(dbc dbctx.Context, userID uuid.UUID, process string) (*types.ExamSession, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockActive required dbc.Tx")
	}
	var out types.ExamSession
	err := withLock(dbFor(dbc, r.db), lockUpdate).
		Where("user_id = ? AND process = ? AND status = ?", userID, types.NormalizeProcess(process), types.SessionActive).
		Order("started_at DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *examSessionRepo) CountActive(dbc dbctx.Context, userID uuid.UUID, process string) (int64, error) {
	var n int64
	if err := dbFor(dbc, r.db).
		Model(&types.ExamSession{}).
		Where("user_id = ? AND process = ? AND status = ?", userID, types.NormalizeProcess(process), types.SessionActive).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *examSessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ExamSession, error) {
	var out []*types.ExamSession
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbFor(dbc, r.db).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
