package model

// Decision is the Rule Engine's (C6) pure output for one message: which
// labels to add, whether Telegram delivery is allowed, and whether the
// message should be marked read.
type Decision struct {
	AddLabels    []string
	PushTelegram bool
	MarkRead     bool
}

// PushTelegramEffective applies the account-level veto: telegram_push_enabled
// = false is a veto that no rule can override.
func (d Decision) PushTelegramEffective(accountTelegramEnabled bool) bool {
	return accountTelegramEnabled && d.PushTelegram
}
