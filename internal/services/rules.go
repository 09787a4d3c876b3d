package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	types "github.com/yungbote/assessment-backend/internal/domain"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type RuleInput struct {
	Category        string `json:"category"`
	MinAttempt      int    `json:"min_attempt"`
	MaxDisplay      int    `json:"max_display"`
	RequiredAttempt *int   `json:"required_attempt,omitempty"`
	Order           int    `json:"order"`
}

// Validate rejects rules that could never be satisfied by a session.
func (in RuleInput) Validate() error {
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if in.MinAttempt < 0 || in.MaxDisplay < 0 || in.Order < 0 {
		return fmt.Errorf("min_attempt, max_display and order must be non-negative")
	}
	if in.RequiredAttempt != nil {
		if *in.RequiredAttempt < 0 {
			return fmt.Errorf("required_attempt must be non-negative")
		}
		if *in.RequiredAttempt > in.MaxDisplay {
			return fmt.Errorf("required_attempt %d exceeds max_display %d", *in.RequiredAttempt, in.MaxDisplay)
		}
	}
	return nil
}

// RuleService administers topic rules. Changes never touch existing sessions;
// the next StartSession notices the new snapshot.
type RuleService interface {
	List(ctx context.Context, process string) ([]*types.TopicRule, error)
	Upsert(ctx context.Context, process string, in RuleInput) (*types.TopicRule, error)
	Delete(ctx context.Context, process, category string) error
}

type ruleService struct {
	log   *logger.Logger
	rules repos.TopicRuleRepo
}

func NewRuleService(log *logger.Logger, rules repos.TopicRuleRepo) RuleService {
	return &ruleService{log: log.With("service", "RuleService"), rules: rules}
}

func requireAdmin(ctx context.Context, op string) error {
	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return err
	}
	if rd.Role != types.RoleAdmin {
		return domainagg.NewError(domainagg.CodeForbidden, op, "admin role required", nil)
	}
	return nil
}

func requireProcessName(process, op string) (string, error) {
	process = types.NormalizeProcess(process)
	if process == "" {
		return "", domainagg.NewError(domainagg.CodeValidation, op, "process is required", nil)
	}
	return process, nil
}

func (s *ruleService) List(ctx context.Context, process string) ([]*types.TopicRule, error) {
	const op = "Rules.List"
	if err := requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	process, err := requireProcessName(process, op)
	if err != nil {
		return nil, err
	}
	out, err := s.rules.FindByProcess(dbctx.Context{Ctx: ctx}, process)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "list rules", err)
	}
	return out, nil
}

func (s *ruleService) Upsert(ctx context.Context, process string, in RuleInput) (*types.TopicRule, error) {
	const op = "Rules.Upsert"
	if err := requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	process, err := requireProcessName(process, op)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	out, err := s.rules.Upsert(dbctx.Context{Ctx: ctx}, &types.TopicRule{
		Process:         process,
		Category:        in.Category,
		MinAttempt:      in.MinAttempt,
		MaxDisplay:      in.MaxDisplay,
		RequiredAttempt: in.RequiredAttempt,
		Order:           in.Order,
	})
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "upsert rule", err)
	}
	s.log.Info("Topic rule saved",
		"process", process,
		"category", out.CategoryKey,
		"min_attempt", out.MinAttempt,
		"max_display", out.MaxDisplay,
	)
	return out, nil
}

func (s *ruleService) Delete(ctx context.Context, process, category string) error {
	const op = "Rules.Delete"
	if err := requireAdmin(ctx, op); err != nil {
		return err
	}
	process, err := requireProcessName(process, op)
	if err != nil {
		return err
	}
	key := types.NormalizeCategory(category)
	if key == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "category is required", nil)
	}
	deleted, err := s.rules.DeleteByCategory(dbctx.Context{Ctx: ctx}, process, key)
	if err != nil {
		return domainagg.NewError(domainagg.CodeStorageFailure, op, "delete rule", err)
	}
	if !deleted {
		return domainagg.NewError(domainagg.CodeNotFound, op, "rule not found", nil)
	}
	s.log.Info("Topic rule deleted", "process", process, "category", key)
	return nil
}
