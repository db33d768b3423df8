package model

import (
	"encoding/json"
	"time"
)

// SummaryMaxRunes bounds Message.ContentSummary.
const SummaryMaxRunes = 200

// Message is one durably persisted email, deduplicated per account by
// MessageID.
type Message struct {
	ID             int64     `db:"id"`
	AccountID      int64     `db:"account_id"`
	MessageID      string    `db:"message_id"`
	Subject        string    `db:"subject"`
	Sender         string    `db:"sender"`
	BodyText       string    `db:"body_text"`
	BodyHTML       string    `db:"body_html"`
	ContentSummary string    `db:"content_summary"`
	ReceivedAt     time.Time `db:"received_at"`
	IsRead         bool      `db:"is_read"`
	LabelsJSON     string    `db:"labels"` // ordered, JSON-array encoded; see Labels()/SetLabels()
	CreatedAt      time.Time `db:"created_at"`
}

// Labels decodes the ordered label set. Malformed or empty storage
// decodes to an empty slice rather than erroring — labels are additive
// metadata, not load-bearing for correctness.
func (m *Message) Labels() []string {
	if m.LabelsJSON == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(m.LabelsJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetLabels encodes an ordered, de-duplicated label set, preserving first
// occurrence order: insertion order is preserved for display, but
// set-equality is what callers should rely on.
func (m *Message) SetLabels(labels []string) {
	seen := make(map[string]struct{}, len(labels))
	ordered := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		ordered = append(ordered, l)
	}
	b, _ := json.Marshal(ordered)
	m.LabelsJSON = string(b)
}

// Summarize derives ContentSummary from BodyText, bounded to
// SummaryMaxRunes runes for compact display in notifications and lists.
func Summarize(bodyText string) string {
	runes := []rune(bodyText)
	if len(runes) <= SummaryMaxRunes {
		return string(runes)
	}
	return string(runes[:SummaryMaxRunes])
}
