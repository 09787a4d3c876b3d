package testutil

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/aggregates"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

// InjectedTxRunner runs aggregate writes with failure injection. With DB set the
// body runs inside a real transaction and an injected commit failure rolls it back,
// so tests can assert that nothing was persisted.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

var errInjectedCommit = errors.New("injected commit failure")

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.rollback()
		return failBeforeBody
	}
	if fn == nil {
		r.commit()
		return nil
	}
	if r.DB == nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.rollback()
			return err
		}
		if failCommit != nil {
			r.rollback()
			return failCommit
		}
		r.commit()
		return nil
	}

	var bodyErr error
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if bodyErr = fn(dbctx.Context{Ctx: ctx, Tx: tx}); bodyErr != nil {
			return bodyErr
		}
		if failCommit != nil {
			return errInjectedCommit
		}
		return nil
	})
	switch {
	case bodyErr != nil:
		r.rollback()
		return bodyErr
	case errors.Is(err, errInjectedCommit):
		r.rollback()
		return failCommit
	case err != nil:
		r.rollback()
		return err
	}
	r.commit()
	return nil
}

func (r *InjectedTxRunner) commit() {
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
}

func (r *InjectedTxRunner) rollback() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
}
