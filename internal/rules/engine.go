// Package rules implements the Rule Engine (C6): a pure, deterministic
// function over a message and an ordered rule list. It has no side
// effects and performs no I/O, so the maintenance "reapply" operation can
// call it directly against already-persisted messages.
package rules

import (
	"sort"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// Input is the subset of a message the engine needs to evaluate
// predicates against.
type Input struct {
	AccountID int64
	Sender    string
	Subject   string
	Body      string
}

// Evaluate applies every candidate rule, in ascending (rule_order, id)
// order, accumulating a Decision. It never short-circuits: every
// matching rule contributes, and push_telegram follows last-writer-wins
// across matches.
func Evaluate(in Input, accountTelegramDefault bool, rules []*model.Rule) model.Decision {
	ordered := make([]*model.Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RuleOrder != ordered[j].RuleOrder {
			return ordered[i].RuleOrder < ordered[j].RuleOrder
		}
		return ordered[i].ID < ordered[j].ID
	})

	decision := model.Decision{
		PushTelegram: accountTelegramDefault,
	}
	var labels []string

	for _, r := range ordered {
		if !r.AppliesTo(in.AccountID) {
			continue
		}
		if !r.Matches(in.Sender, in.Subject, in.Body) {
			continue
		}
		labels = append(labels, r.AddLabels()...)
		decision.PushTelegram = r.PushTelegram
		decision.MarkRead = decision.MarkRead || r.MarkRead
	}

	decision.AddLabels = dedupe(labels)
	return decision
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
