package model

import "encoding/json"

// Rule is one ordered predicate in the classification engine (C6).
// Account-scoped rules (AccountID != nil) only apply to that account;
// global rules (AccountID == nil) apply to every account.
type Rule struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	RuleOrder      int    `db:"rule_order"`
	AccountID      *int64 `db:"account_id"`
	SenderPattern  string `db:"sender_pattern"`
	SubjectPattern string `db:"subject_pattern"`
	BodyPattern    string `db:"body_pattern"`
	AddLabelsJSON  string `db:"add_labels"`
	PushTelegram   bool   `db:"push_telegram"`
	MarkRead       bool   `db:"mark_read"`
}

// AddLabels decodes the set of labels this rule adds on match.
func (r *Rule) AddLabels() []string {
	if r.AddLabelsJSON == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(r.AddLabelsJSON), &out)
	return out
}

// SetAddLabels encodes the label set this rule adds on match.
func (r *Rule) SetAddLabels(labels []string) {
	b, _ := json.Marshal(labels)
	r.AddLabelsJSON = string(b)
}

// AppliesTo reports whether this rule is a candidate for messages
// belonging to accountID.
func (r *Rule) AppliesTo(accountID int64) bool {
	return r.AccountID == nil || *r.AccountID == accountID
}

// Matches evaluates the rule's substring predicates against a message.
// An empty pattern never constrains the outcome; a rule with no non-empty
// pattern always matches.
func (r *Rule) Matches(sender, subject, body string) bool {
	return matchPattern(r.SenderPattern, sender) &&
		matchPattern(r.SubjectPattern, subject) &&
		matchPattern(r.BodyPattern, body)
}
