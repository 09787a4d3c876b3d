package assessment

import (
	"math/rand/v2"
	"sort"
)

// Shuffler supplies the randomness for per-category selection.
type Shuffler interface {
	IntN(n int) int
}

type globalShuffler struct{}

func (globalShuffler) IntN(n int) int { return rand.IntN(n) }

// DefaultShuffler draws from the process-wide math/rand/v2 source.
func DefaultShuffler() Shuffler { return globalShuffler{} }

// SelectedQuestion is one frozen slot of a session's question list.
type SelectedQuestion struct {
	Position int
	Category CategoryKey
	Question *Question
}

// SortRules orders rules by Order, then category key.
func SortRules(rules []*TopicRule) []*TopicRule {
	out := make([]*TopicRule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return ruleKey(out[i]) < ruleKey(out[j])
	})
	return out
}

// EffectiveLimits caps a rule by the number of questions actually shown.
func EffectiveLimits(rule *TopicRule, shown int) RuleLimits {
	if shown < 0 {
		shown = 0
	}
	out := RuleLimits{
		Min: clamp(rule.MinAttempt, shown),
		Max: shown,
	}
	if rule.RequiredAttempt != nil {
		req := clamp(*rule.RequiredAttempt, shown)
		out.Required = &req
	}
	return out
}

// DisplayCount is min(maxDisplay, available).
func DisplayCount(rule *TopicRule, available int) int {
	return clamp(rule.MaxDisplay, available)
}

// BuildSnapshot computes the rules snapshot a session would freeze given the
// live rules and the number of bank questions per category. It depends only on
// counts, never on which questions a shuffle picks.
func BuildSnapshot(rules []*TopicRule, available map[CategoryKey]int) RulesSnapshot {
	snap := RulesSnapshot{}
	for _, r := range SortRules(rules) {
		key := ruleKey(r)
		if key == "" {
			continue
		}
		snap[key] = EffectiveLimits(r, DisplayCount(r, available[key]))
	}
	return snap
}

// PartitionByCategory groups bank questions by normalized category.
func PartitionByCategory(questions []*Question) map[CategoryKey][]*Question {
	out := map[CategoryKey][]*Question{}
	for _, q := range questions {
		if q == nil {
			continue
		}
		key := q.CategoryKey
		if key == "" {
			key = NormalizeCategory(q.Category)
		}
		out[key] = append(out[key], q)
	}
	return out
}

// Counts returns the pool size per category.
func Counts(pool map[CategoryKey][]*Question) map[CategoryKey]int {
	out := make(map[CategoryKey]int, len(pool))
	for k, qs := range pool {
		out[k] = len(qs)
	}
	return out
}

// SelectQuestions shuffles each rule's category pool independently and keeps the
// first DisplayCount questions. Display sets are concatenated in rule order, so
// randomness never crosses category boundaries.
func SelectQuestions(rules []*TopicRule, pool map[CategoryKey][]*Question, shuf Shuffler) []SelectedQuestion {
	if shuf == nil {
		shuf = DefaultShuffler()
	}
	var out []SelectedQuestion
	seen := map[CategoryKey]bool{}
	for _, r := range SortRules(rules) {
		key := ruleKey(r)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		candidates := append([]*Question(nil), pool[key]...)
		shuffle(candidates, shuf)
		n := DisplayCount(r, len(candidates))
		for _, q := range candidates[:n] {
			out = append(out, SelectedQuestion{
				Position: len(out),
				Category: key,
				Question: q,
			})
		}
	}
	return out
}

func shuffle(qs []*Question, shuf Shuffler) {
	for i := len(qs) - 1; i > 0; i-- {
		j := shuf.IntN(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}

func ruleKey(r *TopicRule) CategoryKey {
	if r.CategoryKey != "" {
		return r.CategoryKey
	}
	return NormalizeCategory(r.Category)
}

func clamp(v, upper int) int {
	if v < 0 {
		return 0
	}
	if v > upper {
		return upper
	}
	return v
}
