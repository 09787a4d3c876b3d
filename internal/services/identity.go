package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/assessment-backend/internal/domain"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/platform/ctxutil"
)

func requireIdentity(ctx context.Context, op string) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "missing identity", nil)
	}
	return rd, nil
}

// requireProcess returns the caller's normalized process when it matches requested.
func requireProcess(rd *ctxutil.RequestData, requested, op string) (string, error) {
	assigned := types.NormalizeProcess(rd.Process)
	if assigned == "" || assigned != types.NormalizeProcess(requested) {
		return "", domainagg.NewError(domainagg.CodeProcessMismatch, op, "process not assigned to caller", nil)
	}
	return assigned, nil
}
