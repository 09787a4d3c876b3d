package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/assessment-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, process string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:      uuid.New(),
		Email:   email,
		Name:    "Test User",
		Process: process,
		Role:    types.RoleUser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedQuestions creates n single-choice questions in category whose correct answer is "a".
func SeedQuestions(tb testing.TB, ctx context.Context, tx *gorm.DB, process, category string, n int) []*types.Question {
	tb.Helper()
	out := make([]*types.Question, 0, n)
	for i := 0; i < n; i++ {
		q := &types.Question{
			ID:            uuid.New(),
			Process:       process,
			Category:      category,
			CategoryKey:   types.NormalizeCategory(category),
			Type:          types.QuestionSingleChoice,
			Text:          fmt.Sprintf("%s question %d", category, i+1),
			Options:       mustJSON(tb, []string{"a", "b", "c"}),
			CorrectAnswer: mustJSON(tb, "a"),
		}
		if err := tx.WithContext(ctx).Create(q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

type RuleSeed struct {
	Category string
	Min      int
	Max      int
	Required *int
	Order    int
}

func SeedRules(tb testing.TB, ctx context.Context, tx *gorm.DB, process string, rules ...RuleSeed) []*types.TopicRule {
	tb.Helper()
	out := make([]*types.TopicRule, 0, len(rules))
	for _, r := range rules {
		row := &types.TopicRule{
			ID:              uuid.New(),
			Process:         process,
			Category:        r.Category,
			CategoryKey:     types.NormalizeCategory(r.Category),
			MinAttempt:      r.Min,
			MaxDisplay:      r.Max,
			RequiredAttempt: r.Required,
			Order:           r.Order,
		}
		if err := tx.WithContext(ctx).Create(row).Error; err != nil {
			tb.Fatalf("seed rule: %v", err)
		}
		out = append(out, row)
	}
	return out
}

func mustJSON(tb testing.TB, v any) datatypes.JSON {
	tb.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("marshal fixture: %v", err)
	}
	return datatypes.JSON(raw)
}

func PtrInt(v int) *int { return &v }

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
