package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

// CASGuard provides compare-and-set helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByStatus updates a row only when id+status guard matches.
func (g CASGuard) UpdateByStatus(dbc dbctx.Context, table string, id uuid.UUID, allowedStatuses []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateByStatus")
	}
	if len(allowedStatuses) == 0 {
		return false, ValidationError("allowedStatuses must not be empty")
	}
	res := db.Table(table).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireStatusAllowed validates current status against allowed values.
func RequireStatusAllowed(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	if len(allowed) == 0 {
		return ValidationError("allowed statuses cannot be empty")
	}
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return ConflictError("status transition not allowed")
}
