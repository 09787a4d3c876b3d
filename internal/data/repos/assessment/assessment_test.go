package assessment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/assessment-backend/internal/data/repos/testutil"
	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

func TestTopicRuleRepoUpsertNormalizesCategory(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTopicRuleRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	first, err := repo.Upsert(dbc, &types.TopicRule{
		Process:         "audit",
		Category:        " Basics ",
		MinAttempt:      1,
		MaxDisplay:      4,
		RequiredAttempt: testutil.PtrInt(2),
		Order:           2,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first.CategoryKey != "basics" || first.Category != "Basics" {
		t.Fatalf("stored category: key=%q category=%q", first.CategoryKey, first.Category)
	}

	second, err := repo.Upsert(dbc, &types.TopicRule{
		Process:    "audit",
		Category:   "BASICS",
		MinAttempt: 3,
		MaxDisplay: 5,
		Order:      1,
	})
	if err != nil {
		t.Fatalf("Upsert(update): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("case-insensitive upsert must update the same row: %s vs %s", first.ID, second.ID)
	}
	if second.MinAttempt != 3 || second.MaxDisplay != 5 || second.RequiredAttempt != nil {
		t.Fatalf("updated rule: %+v", second)
	}

	if _, err := repo.Upsert(dbc, &types.TopicRule{Process: "audit", Category: "advanced", Order: 0}); err != nil {
		t.Fatalf("Upsert(advanced): %v", err)
	}
	rules, err := repo.FindByProcess(dbc, "audit")
	if err != nil {
		t.Fatalf("FindByProcess: %v", err)
	}
	if len(rules) != 2 || rules[0].CategoryKey != "advanced" || rules[1].CategoryKey != "basics" {
		t.Fatalf("rule order: %+v", rules)
	}

	deleted, err := repo.DeleteByCategory(dbc, "audit", "basics")
	if err != nil || !deleted {
		t.Fatalf("DeleteByCategory: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.DeleteByCategory(dbc, "audit", "basics")
	if err != nil || deleted {
		t.Fatalf("DeleteByCategory(again): want=false got=%v err=%v", deleted, err)
	}
}

func TestQuestionRepoFiltersByProcessAndCategory(t *testing.T) {
	db := testutil.DB(t)
	repo := NewQuestionRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	basics := testutil.SeedQuestions(t, ctx, db, "audit", "Basics", 2)
	testutil.SeedQuestions(t, ctx, db, "audit", "advanced", 1)
	testutil.SeedQuestions(t, ctx, db, "finance", "basics", 3)

	all, err := repo.FindByProcess(dbc, "audit", "")
	if err != nil || len(all) != 3 {
		t.Fatalf("FindByProcess(all): want=3 got=%d err=%v", len(all), err)
	}
	only, err := repo.FindByProcess(dbc, "audit", "basics")
	if err != nil || len(only) != 2 {
		t.Fatalf("FindByProcess(basics): want=2 got=%d err=%v", len(only), err)
	}

	// soft-deleted questions drop out of the bank but still resolve by id
	if err := db.Delete(&types.Question{}, "id = ?", basics[0].ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	only, _ = repo.FindByProcess(dbc, "audit", "basics")
	if len(only) != 1 {
		t.Fatalf("FindByProcess after delete: want=1 got=%d", len(only))
	}
	got, err := repo.GetByID(dbc, basics[0].ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID(soft deleted): %v %v", got, err)
	}
	byIDs, err := repo.GetByIDs(dbc, []uuid.UUID{basics[0].ID, basics[1].ID})
	if err != nil || len(byIDs) != 2 {
		t.Fatalf("GetByIDs: want=2 got=%d err=%v", len(byIDs), err)
	}
}

func TestProcessLookupsIgnoreCaseAndSpace(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	rules := NewTopicRuleRepo(db, testutil.Logger(t))
	questions := NewQuestionRepo(db, testutil.Logger(t))

	testutil.SeedRules(t, ctx, db, "Onboarding", testutil.RuleSeed{Category: "basics", Min: 1, Max: 1})
	testutil.SeedQuestions(t, ctx, db, " ONBOARDING", "basics", 2)

	gotRules, err := rules.FindByProcess(dbc, "onboarding ")
	if err != nil || len(gotRules) != 1 || gotRules[0].Process != "onboarding" {
		t.Fatalf("rules: want 1 stored as onboarding, got=%+v err=%v", gotRules, err)
	}
	gotQuestions, err := questions.FindByProcess(dbc, "OnBoarding", "")
	if err != nil || len(gotQuestions) != 2 {
		t.Fatalf("questions: want=2 got=%d err=%v", len(gotQuestions), err)
	}
	for _, q := range gotQuestions {
		if q.Process != "onboarding" {
			t.Fatalf("question process stored as %q", q.Process)
		}
	}
}

func TestSessionAnswerRepoUpsertOverwrites(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSessionAnswerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	sessionID, questionID := uuid.New(), uuid.New()

	if err := repo.Upsert(dbc, &types.SessionAnswer{
		SessionID: sessionID, QuestionID: questionID, Category: "basics",
		Answer: datatypes.JSON(`"b"`), IsCorrect: false,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, &types.SessionAnswer{
		SessionID: sessionID, QuestionID: questionID, Category: "basics",
		Answer: datatypes.JSON(`"a"`), IsCorrect: true,
	}); err != nil {
		t.Fatalf("Upsert(overwrite): %v", err)
	}
	rows, err := repo.ListBySession(dbc, sessionID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(rows) != 1 || !rows[0].IsCorrect || string(rows[0].Answer) != `"a"` {
		t.Fatalf("rows after overwrite: %+v", rows)
	}
	if err := repo.Upsert(dbc, &types.SessionAnswer{QuestionID: questionID}); err == nil {
		t.Fatalf("expected error for missing session id")
	}
}

func TestSessionAnswerRepoUpsertKeepsCallerTimestamp(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSessionAnswerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	sessionID, questionID := uuid.New(), uuid.New()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(90 * time.Second)

	for _, at := range []time.Time{first, second} {
		if err := repo.Upsert(dbc, &types.SessionAnswer{
			SessionID: sessionID, QuestionID: questionID, Category: "basics",
			Answer: datatypes.JSON(`"a"`), UpdatedAt: at,
		}); err != nil {
			t.Fatalf("Upsert(%v): %v", at, err)
		}
		rows, err := repo.ListBySession(dbc, sessionID)
		if err != nil {
			t.Fatalf("ListBySession: %v", err)
		}
		if len(rows) != 1 || !rows[0].UpdatedAt.Equal(at) {
			t.Fatalf("updated_at: want=%v got=%+v", at, rows)
		}
	}

	unset := &types.SessionAnswer{SessionID: sessionID, QuestionID: uuid.New(), Category: "basics", Answer: datatypes.JSON(`"b"`)}
	if err := repo.Upsert(dbc, unset); err != nil {
		t.Fatalf("Upsert(no timestamp): %v", err)
	}
	if unset.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not stamped when caller left it unset")
	}
}

func TestExamSessionOneActivePerUserProcess(t *testing.T) {
	db := testutil.DB(t)
	repo := NewExamSessionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	newSession := func(status types.SessionStatus) *types.ExamSession {
		return &types.ExamSession{
			UserID:        userID,
			Process:       "audit",
			Status:        status,
			RulesSnapshot: datatypes.JSON(`{}`),
			StartedAt:     time.Now().UTC(),
		}
	}
	if err := repo.Create(dbc, newSession(types.SessionActive)); err != nil {
		t.Fatalf("Create(active): %v", err)
	}
	if err := repo.Create(dbc, newSession(types.SessionAbandoned)); err != nil {
		t.Fatalf("Create(abandoned): %v", err)
	}
	err := repo.Create(dbc, newSession(types.SessionActive))
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "unique") {
		t.Fatalf("second ACTIVE session must violate the partial unique index, got=%v", err)
	}

	n, err := repo.CountActive(dbc, userID, "audit")
	if err != nil || n != 1 {
		t.Fatalf("CountActive: want=1 got=%d err=%v", n, err)
	}
	if _, err := repo.LockActive(dbc, userID, "audit"); err == nil {
		t.Fatalf("LockActive without tx must fail")
	}

	tx := testutil.Tx(t, db)
	active, err := repo.LockActive(dbctx.Context{Ctx: context.Background(), Tx: tx}, userID, "audit")
	if err != nil || active == nil || active.Status != types.SessionActive {
		t.Fatalf("LockActive: %+v %v", active, err)
	}
}

func TestAssessmentResultRepoListsNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAssessmentResultRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, mode := range []types.ResultMode{types.ResultModeSession, types.ResultModeTest} {
		if err := repo.Create(dbc, &types.AssessmentResult{
			UserID:    userID,
			Process:   "audit",
			Mode:      mode,
			Status:    types.ResultPassed,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	out, err := repo.ListByUser(dbc, userID, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(out) != 2 || out[0].Mode != types.ResultModeTest {
		t.Fatalf("ListByUser order: %+v", out)
	}
	missing, err := repo.GetBySession(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetBySession(missing): want nil,nil got=%v,%v", missing, err)
	}
}
