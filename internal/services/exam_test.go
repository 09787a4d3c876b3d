package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/assessment-backend/internal/data/repos/testutil"
	types "github.com/yungbote/assessment-backend/internal/domain"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
	"github.com/yungbote/assessment-backend/internal/platform/ctxutil"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

type countingLocker struct {
	acquired atomic.Int32
	released atomic.Int32
}

func (l *countingLocker) Acquire(context.Context, string) (func(), error) {
	l.acquired.Add(1)
	return func() { l.released.Add(1) }, nil
}

func TestExamServiceRequiresIdentityAndProcess(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.examService(nil)

	if _, err := svc.StartSession(context.Background(), "onboarding"); !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("no identity: want=%s got=%v", domainagg.CodeUnauthorized, err)
	}
	u := testutil.SeedUser(t, context.Background(), f.db, "mismatch@example.com", "onboarding")
	if _, err := svc.StartSession(asUser(u), "finance"); !domainagg.IsCode(err, domainagg.CodeProcessMismatch) {
		t.Fatalf("mismatch: want=%s got=%v", domainagg.CodeProcessMismatch, err)
	}
	if _, err := svc.CompleteSession(context.Background(), uuid.New()); !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("complete without identity: want=%s got=%v", domainagg.CodeUnauthorized, err)
	}
}

func TestExamServiceStartHidesAnswersAndResumes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "start@example.com", "onboarding")
	testutil.SeedRules(t, ctx, f.db, "onboarding",
		testutil.RuleSeed{Category: "Basics", Min: 1, Max: 2},
		testutil.RuleSeed{Category: "Advanced", Min: 0, Max: 1, Order: 1},
	)
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "Basics", 3)
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "Advanced", 1)
	locker := &countingLocker{}
	svc := f.examService(locker)

	first, err := svc.StartSession(asUser(u), " Onboarding ")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if len(first.Questions) != 3 || first.Resumed {
		t.Fatalf("first start: questions=%d resumed=%v", len(first.Questions), first.Resumed)
	}
	for i, q := range first.Questions {
		if q.Position != i {
			t.Fatalf("positions: want=%d got=%d", i, q.Position)
		}
	}
	raw, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "correct") {
		t.Fatalf("start view leaks correct answers: %s", raw)
	}

	second, err := svc.StartSession(asUser(u), "onboarding")
	if err != nil {
		t.Fatalf("StartSession resume: %v", err)
	}
	if !second.Resumed || second.SessionID != first.SessionID {
		t.Fatalf("resume: want session=%s got=%s resumed=%v", first.SessionID, second.SessionID, second.Resumed)
	}
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("resume question %d changed", i)
		}
	}
	if locker.acquired.Load() != 2 || locker.released.Load() != 2 {
		t.Fatalf("locker: acquired=%d released=%d", locker.acquired.Load(), locker.released.Load())
	}
}

func TestExamServiceConcurrentStartsShareOneSession(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "race@example.com", "onboarding")
	testutil.SeedRules(t, ctx, f.db, "onboarding", testutil.RuleSeed{Category: "basics", Min: 1, Max: 2})
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "basics", 2)
	svc := f.examService(nil)

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 6)
	errs := make([]error, 6)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.StartSession(asUser(u), "onboarding")
			errs[i] = err
			if v != nil {
				ids[i] = v.SessionID
			}
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Fatalf("start %d: want session=%s got=%s", i, ids[0], ids[i])
		}
	}
	n, err := f.sessions.CountActive(dbctx.Context{Ctx: ctx}, u.ID, "onboarding")
	if err != nil || n != 1 {
		t.Fatalf("active sessions: want=1 got=%d err=%v", n, err)
	}
}

// gatedLocker holds every Acquire until open is closed or the caller's ctx ends.
type gatedLocker struct {
	entered  chan struct{}
	open     chan struct{}
	once     sync.Once
	acquired atomic.Int32
}

func newGatedLocker() *gatedLocker {
	return &gatedLocker{entered: make(chan struct{}), open: make(chan struct{})}
}

func (l *gatedLocker) Acquire(ctx context.Context, _ string) (func(), error) {
	l.acquired.Add(1)
	l.once.Do(func() { close(l.entered) })
	select {
	case <-l.open:
		return func() {}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestExamServiceStartSurvivesFirstCallerCancel(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "cancel@example.com", "onboarding")
	testutil.SeedRules(t, ctx, f.db, "onboarding", testutil.RuleSeed{Category: "basics", Min: 1, Max: 2})
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "basics", 2)
	locker := newGatedLocker()
	svc := f.examService(locker)

	firstCtx, cancelFirst := context.WithCancel(asUser(u))
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.StartSession(firstCtx, "onboarding")
		firstErr <- err
	}()
	<-locker.entered

	type outcome struct {
		view *StartSessionView
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		v, err := svc.StartSession(asUser(u), "onboarding")
		second <- outcome{v, err}
	}()
	// Let the second caller join the in-flight start before the first goes away.
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("canceled caller: want=%s got=%v", domainagg.CodeRetryable, err)
	}
	close(locker.open)

	got := <-second
	if got.err != nil {
		t.Fatalf("live caller: %v", got.err)
	}
	if got.view == nil || len(got.view.Questions) != 2 {
		t.Fatalf("live caller view: %+v", got.view)
	}
	n, err := f.sessions.CountActive(dbctx.Context{Ctx: ctx}, u.ID, "onboarding")
	if err != nil || n != 1 {
		t.Fatalf("active sessions: want=1 got=%d err=%v", n, err)
	}
	if locker.acquired.Load() != 1 {
		t.Fatalf("lock acquires: want=1 got=%d", locker.acquired.Load())
	}
}

type conflictOnceAggregate struct {
	domainagg.ExamSessionAggregate
	calls int
}

func (a *conflictOnceAggregate) StartSession(ctx context.Context, in domainagg.StartSessionInput) (domainagg.StartSessionResult, error) {
	a.calls++
	if a.calls == 1 {
		return domainagg.StartSessionResult{}, domainagg.NewError(domainagg.CodeConflict, "Exam.Session.Start", "duplicate active session", nil)
	}
	return a.ExamSessionAggregate.StartSession(ctx, in)
}

func TestExamServiceRetriesStartOnceOnConflict(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "retry@example.com", "onboarding")
	testutil.SeedRules(t, ctx, f.db, "onboarding", testutil.RuleSeed{Category: "basics", Min: 1, Max: 1})
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "basics", 1)

	inner := f.examService(nil).(*examService).deps.Aggregate
	agg := &conflictOnceAggregate{ExamSessionAggregate: inner}
	svc := NewExamService(ExamServiceDeps{Log: f.log, Aggregate: agg})

	if _, err := svc.StartSession(asUser(u), "onboarding"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if agg.calls != 2 {
		t.Fatalf("aggregate calls: want=2 got=%d", agg.calls)
	}
}

func TestExamServiceAnswerReadModelAndComplete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "flow@example.com", "onboarding")
	other := testutil.SeedUser(t, ctx, f.db, "other@example.com", "onboarding")
	testutil.SeedRules(t, ctx, f.db, "onboarding",
		testutil.RuleSeed{Category: "basics", Min: 1, Max: 2},
		testutil.RuleSeed{Category: "advanced", Min: 1, Max: 1, Order: 1},
	)
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "basics", 2)
	testutil.SeedQuestions(t, ctx, f.db, "onboarding", "advanced", 1)
	svc := f.examService(nil)

	started, err := svc.StartSession(asUser(u), "onboarding")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	byCategory := map[string][]uuid.UUID{}
	for _, q := range started.Questions {
		byCategory[q.Category] = append(byCategory[q.Category], q.ID)
	}

	ok, err := svc.RecordAnswer(asUser(u), started.SessionID, byCategory["basics"][0], json.RawMessage(`"a"`))
	if err != nil || !ok {
		t.Fatalf("RecordAnswer: ok=%v err=%v", ok, err)
	}
	if _, err := svc.RecordAnswer(asUser(other), started.SessionID, byCategory["basics"][0], json.RawMessage(`"a"`)); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("foreign answer: want=%s got=%v", domainagg.CodeForbidden, err)
	}
	if _, err := svc.RecordAnswer(asUser(u), started.SessionID, uuid.New(), json.RawMessage(`"a"`)); !domainagg.IsCode(err, domainagg.CodeQuestionNotAssigned) {
		t.Fatalf("unassigned: want=%s got=%v", domainagg.CodeQuestionNotAssigned, err)
	}

	view, err := svc.GetSession(asUser(u), started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if view.Answered["basics"] != 1 || view.Answered["advanced"] != 0 || len(view.Questions) != 3 {
		t.Fatalf("read model: answered=%v questions=%d", view.Answered, len(view.Questions))
	}
	if _, err := svc.GetSession(asUser(other), started.SessionID); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("foreign read: want=%s got=%v", domainagg.CodeForbidden, err)
	}
	if _, err := svc.GetSession(asUser(u), uuid.New()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing read: want=%s got=%v", domainagg.CodeNotFound, err)
	}

	_, err = svc.CompleteSession(asUser(u), started.SessionID)
	if !domainagg.IsCode(err, domainagg.CodeRuleViolation) {
		t.Fatalf("incomplete: want=%s got=%v", domainagg.CodeRuleViolation, err)
	}
	if v := domainagg.ViolationsOf(err); len(v) != 1 || v[0].Category != "advanced" {
		t.Fatalf("violations: got=%+v", v)
	}

	if _, err := svc.RecordAnswer(asUser(u), started.SessionID, byCategory["advanced"][0], json.RawMessage(`"b"`)); err != nil {
		t.Fatalf("RecordAnswer advanced: %v", err)
	}
	done, err := svc.CompleteSession(asUser(u), started.SessionID)
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if done.Correct != 1 || done.Wrong != 1 || done.Total != 3 || done.Status != string(assessment.ResultFailed) {
		t.Fatalf("complete: got=%+v", done)
	}

	results, err := svc.ListResults(asUser(u), 0)
	if err != nil || len(results) != 1 || results[0].ID != done.ResultID {
		t.Fatalf("ListResults: got=%d err=%v", len(results), err)
	}
	others, err := svc.ListResults(asUser(other), 0)
	if err != nil || len(others) != 0 {
		t.Fatalf("ListResults(other): got=%d err=%v", len(others), err)
	}
}

func TestExamServiceProcessMatchesAcrossCase(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "mixed@example.com", "Onboarding")
	if u.Process != "onboarding" {
		t.Fatalf("stored user process: want=onboarding got=%q", u.Process)
	}
	admin := testutil.SeedUser(t, ctx, f.db, "rules-admin@example.com", "ops")
	admin.Role = types.RoleAdmin
	if _, err := NewRuleService(f.log, f.rules).Upsert(asUser(admin), "ONBOARDING", RuleInput{Category: "Basics", MinAttempt: 1, MaxDisplay: 2}); err != nil {
		t.Fatalf("Upsert rule: %v", err)
	}
	testutil.SeedQuestions(t, ctx, f.db, " Onboarding ", "Basics", 2)

	// Identity carried from a row written before process names were normalized.
	legacy := ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID, Process: "Onboarding", Role: types.RoleUser})
	svc := f.examService(nil)
	view, err := svc.StartSession(legacy, "onboarding")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if view.Process != "onboarding" || len(view.Questions) != 2 {
		t.Fatalf("session: process=%q questions=%d", view.Process, len(view.Questions))
	}
	again, err := svc.StartSession(asUser(u), "ONBOARDING")
	if err != nil {
		t.Fatalf("StartSession resume: %v", err)
	}
	if !again.Resumed || again.SessionID != view.SessionID {
		t.Fatalf("resume across case: resumed=%v same=%v", again.Resumed, again.SessionID == view.SessionID)
	}
}
