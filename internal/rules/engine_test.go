package rules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

func rule(id int64, order int, accountID *int64, subjectPattern string, labels []string, push, markRead bool) *model.Rule {
	r := &model.Rule{
		ID:             id,
		RuleOrder:      order,
		AccountID:      accountID,
		SubjectPattern: subjectPattern,
		PushTelegram:   push,
		MarkRead:       markRead,
	}
	r.SetAddLabels(labels)
	return r
}

// Rule ordering: last-writer-wins on push_telegram, labels accumulate.
func TestEvaluate_RuleOrdering(t *testing.T) {
	r1 := rule(1, 0, nil, "alert", []string{"P1"}, true, false)
	r2 := rule(2, 1, nil, "alert", []string{"P2"}, false, false)

	decision := Evaluate(Input{AccountID: 1, Subject: "Alert: disk"}, true, []*model.Rule{r2, r1})

	assert.ElementsMatch(t, []string{"P1", "P2"}, decision.AddLabels)
	assert.False(t, decision.PushTelegram)
}

func TestEvaluate_EmptyRuleList(t *testing.T) {
	decision := Evaluate(Input{AccountID: 1, Subject: "anything"}, true, nil)
	assert.Empty(t, decision.AddLabels)
	assert.True(t, decision.PushTelegram)
	assert.False(t, decision.MarkRead)
}

func TestEvaluate_AccountScopedRuleDoesNotApplyElsewhere(t *testing.T) {
	otherAccount := int64(99)
	r := rule(1, 0, &otherAccount, "", []string{"SHOULD_NOT_APPEAR"}, true, false)

	decision := Evaluate(Input{AccountID: 1, Subject: "hi"}, false, []*model.Rule{r})
	assert.Empty(t, decision.AddLabels)
}

func TestEvaluate_MarkReadAccumulatesOr(t *testing.T) {
	r1 := rule(1, 0, nil, "", nil, true, false)
	r2 := rule(2, 1, nil, "", nil, true, true)

	decision := Evaluate(Input{AccountID: 1, Subject: "x"}, true, []*model.Rule{r1, r2})
	require.True(t, decision.MarkRead)
}

// Evaluate is deterministic, and reordering rules of equal rule_order
// by id does not change the output.
func TestProperty_EvaluateDeterministicAndOrderStable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("evaluate is deterministic for the same input", prop.ForAll(
		func(subject string, n int) bool {
			rules := make([]*model.Rule, 0, n%5)
			for i := 0; i < n%5; i++ {
				rules = append(rules, rule(int64(i), 0, nil, "a", []string{"L"}, i%2 == 0, false))
			}
			in := Input{AccountID: 1, Subject: subject}
			a := Evaluate(in, true, rules)
			b := Evaluate(in, true, rules)
			return assert.ObjectsAreEqual(a, b)
		},
		gen.AlphaString(),
		gen.IntRange(0, 20),
	))

	properties.Property("reordering equal-rule_order rules by id alone does not change output", prop.ForAll(
		func(subject string) bool {
			r1 := rule(1, 0, nil, "", []string{"A"}, true, false)
			r2 := rule(2, 0, nil, "", []string{"B"}, false, false)

			forward := Evaluate(Input{AccountID: 1, Subject: subject}, true, []*model.Rule{r1, r2})
			backward := Evaluate(Input{AccountID: 1, Subject: subject}, true, []*model.Rule{r2, r1})
			return assert.ObjectsAreEqual(forward, backward)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
