package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	types "github.com/yungbote/assessment-backend/internal/domain"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/platform/ctxutil"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	const op = "User.GetMe"
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "missing identity", nil)
	}
	me, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "load user", err)
	}
	if me == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user %s not found", rd.UserID), nil)
	}
	return me, nil
}
