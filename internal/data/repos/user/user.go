package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, userEmail string) (bool, error)
	UpsertByEmail(dbc dbctx.Context, user *types.User) (*types.User, error)
	UpdateProcess(dbc dbctx.Context, userID uuid.UUID, process string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// GetByID returns nil, nil when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	var out types.User
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", userID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, userEmail string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertByEmail creates the user or refreshes name, process and role of the existing row.
func (ur *userRepo) UpsertByEmail(dbc dbctx.Context, user *types.User) (*types.User, error) {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return nil, errors.New("missing user email")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "process", "role", "updated_at"}),
		}).
		Create(user).Error; err != nil {
		return nil, err
	}
	var out types.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("email = ?", user.Email).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (ur *userRepo) UpdateProcess(dbc dbctx.Context, userID uuid.UUID, process string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("process", types.NormalizeProcess(process)).Error
}
