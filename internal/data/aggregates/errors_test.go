package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_UniqueViolations(t *testing.T) {
	cases := []error{
		gorm.ErrDuplicatedKey,
		&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
		errors.New("UNIQUE constraint failed: exam_session.user_id, exam_session.process"),
	}
	for _, in := range cases {
		if err := MapError("op", in); !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("MapError(%v): want=conflict got=%q", in, domainagg.CodeOf(err))
		}
	}
}

func TestMapError_Retryable(t *testing.T) {
	cases := []error{
		context.DeadlineExceeded,
		fmt.Errorf("wrapped: %w", context.Canceled),
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40P01"},
		errors.New("database is locked"),
	}
	for _, in := range cases {
		if err := MapError("op", in); !domainagg.IsCode(err, domainagg.CodeRetryable) {
			t.Fatalf("MapError(%v): want=retryable got=%q", in, domainagg.CodeOf(err))
		}
	}
}

func TestMapError_DefaultsToStorageFailure(t *testing.T) {
	err := MapError("op", errors.New("connection reset by peer"))
	if !domainagg.IsCode(err, domainagg.CodeStorageFailure) {
		t.Fatalf("expected storage_failure code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeSessionClosed, "op", "closed", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
