package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/bankfile"
	"github.com/yungbote/assessment-backend/internal/data/repos"
	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type ImportSummary struct {
	Process string
	Rules   int
	Created int
	Updated int
	Users   []*types.User
}

// BankImporter upserts a bank document in one transaction. Questions are
// matched by explicit id first, then by (process, text).
type BankImporter interface {
	Import(ctx context.Context, bank *bankfile.Bank) (*ImportSummary, error)
}

type bankImporter struct {
	db        *gorm.DB
	log       *logger.Logger
	users     repos.UserRepo
	rules     repos.TopicRuleRepo
	questions repos.QuestionRepo
}

func NewBankImporter(db *gorm.DB, log *logger.Logger, users repos.UserRepo, rules repos.TopicRuleRepo, questions repos.QuestionRepo) BankImporter {
	return &bankImporter{
		db:        db,
		log:       log.With("service", "BankImporter"),
		users:     users,
		rules:     rules,
		questions: questions,
	}
}

func (s *bankImporter) Import(ctx context.Context, bank *bankfile.Bank) (*ImportSummary, error) {
	if bank == nil {
		return nil, fmt.Errorf("nil bank")
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	process := types.NormalizeProcess(bank.Process)
	out := &ImportSummary{Process: process}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, r := range bank.Rules {
			if _, err := s.rules.Upsert(dbc, &types.TopicRule{
				Process:         process,
				Category:        r.Category,
				MinAttempt:      r.MinAttempt,
				MaxDisplay:      r.MaxDisplay,
				RequiredAttempt: r.RequiredAttempt,
				Order:           r.Order,
			}); err != nil {
				return fmt.Errorf("rule %q: %w", r.Category, err)
			}
			out.Rules++
		}
		for i, q := range bank.Questions {
			created, err := s.importQuestion(dbc, process, q)
			if err != nil {
				return fmt.Errorf("question %d: %w", i, err)
			}
			if created {
				out.Created++
			} else {
				out.Updated++
			}
		}
		for _, u := range bank.Users {
			role := strings.TrimSpace(u.Role)
			if role == "" {
				role = types.RoleUser
			}
			name := strings.TrimSpace(u.Name)
			if name == "" {
				name = strings.TrimSpace(u.Email)
			}
			saved, err := s.users.UpsertByEmail(dbc, &types.User{
				Email:   strings.TrimSpace(u.Email),
				Name:    name,
				Process: process,
				Role:    role,
			})
			if err != nil {
				return fmt.Errorf("user %q: %w", u.Email, err)
			}
			out.Users = append(out.Users, saved)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Bank import failed", "process", process, "error", err)
		return nil, err
	}
	s.log.Info("Bank imported",
		"process", process,
		"rules", out.Rules,
		"created", out.Created,
		"updated", out.Updated,
		"users", len(out.Users),
	)
	return out, nil
}

func (s *bankImporter) importQuestion(dbc dbctx.Context, process string, in bankfile.Question) (bool, error) {
	correct, err := in.CorrectAnswerJSON()
	if err != nil {
		return false, err
	}
	opts, err := in.OptionsJSON()
	if err != nil {
		return false, err
	}
	q := &types.Question{
		Process:       process,
		Category:      strings.TrimSpace(in.Category),
		Type:          types.QuestionType(in.Type),
		Text:          strings.TrimSpace(in.Text),
		CorrectAnswer: datatypes.JSON(correct),
	}
	if opts != nil {
		q.Options = datatypes.JSON(opts)
	}

	created := true
	if raw := strings.TrimSpace(in.ID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return false, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		existing, err := s.questions.GetByID(dbc, id)
		if err != nil {
			return false, err
		}
		q.ID = id
		created = existing == nil
	} else {
		existing, err := s.questions.FindByProcessText(dbc, process, q.Text)
		if err != nil {
			return false, err
		}
		if existing != nil {
			q.ID = existing.ID
			created = false
		}
	}
	return created, s.questions.Upsert(dbc, q)
}
