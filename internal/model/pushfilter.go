package model

import "strings"

// PushFilterField names the message field a PushFilter predicate tests.
type PushFilterField string

const (
	FilterFieldSender  PushFilterField = "sender"
	FilterFieldDomain  PushFilterField = "domain"
	FilterFieldSubject PushFilterField = "subject"
	FilterFieldBody    PushFilterField = "body"
)

// PushFilterMode is allow-list or deny-list.
type PushFilterMode string

const (
	FilterModeAllow PushFilterMode = "allow"
	FilterModeDeny  PushFilterMode = "deny"
)

// PushFilter is a per-account inclusion/exclusion predicate applied after
// the Rule Engine and before Telegram delivery.
type PushFilter struct {
	ID        int64           `db:"id"`
	AccountID int64           `db:"account_id"`
	Field     PushFilterField `db:"field"`
	Mode      PushFilterMode  `db:"mode"`
	Value     string          `db:"value"`
	RuleOrder int             `db:"rule_order"`
}

// Matches evaluates the filter's predicate against a message's fields.
func (f *PushFilter) Matches(sender, subject, body string) bool {
	var field string
	switch f.Field {
	case FilterFieldDomain:
		field = domainOf(sender)
	case FilterFieldSender:
		field = sender
	case FilterFieldSubject:
		field = subject
	case FilterFieldBody:
		field = body
	}
	return matchPattern(f.Value, field)
}

func domainOf(address string) string {
	idx := strings.LastIndex(address, "@")
	if idx < 0 || idx == len(address)-1 {
		return ""
	}
	return address[idx+1:]
}
