package delivery

import "github.com/mailaggregator/mailaggregator/internal/model"

// allowed evaluates a message against an account's push filters: an
// allow-list filter set blocks delivery unless at least one allow
// filter matches; a deny-list filter blocks delivery when any deny
// filter matches. Filters apply in rule_order, but since allow and deny
// are independent predicates rather than a first-match chain, order only
// matters for which filter a caller would cite when explaining a block.
func allowed(filters []*model.PushFilter, sender, subject, body string) bool {
	hasAllow := false
	anyAllowMatched := false

	for _, f := range filters {
		matched := f.Matches(sender, subject, body)
		switch f.Mode {
		case model.FilterModeAllow:
			hasAllow = true
			if matched {
				anyAllowMatched = true
			}
		case model.FilterModeDeny:
			if matched {
				return false
			}
		}
	}

	if hasAllow && !anyAllowMatched {
		return false
	}
	return true
}
