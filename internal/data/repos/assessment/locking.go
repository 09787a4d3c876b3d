package assessment

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

const (
	lockUpdate = "UPDATE"
	lockShare  = "SHARE"
)

func dbFor(dbc dbctx.Context, fallback *gorm.DB) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = fallback
	}
	return transaction.WithContext(dbc.Ctx)
}

// withLock adds a row lock on dialects that support one. SQLite serialises
// writers at the database level, so it gets no clause.
func withLock(q *gorm.DB, strength string) *gorm.DB {
	if q.Dialector == nil || q.Dialector.Name() != "postgres" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: strength})
}
