// Package delivery implements the Delivery Fan-out (C7): Telegram and
// webhook notification of newly ingested messages, queued so a slow
// remote endpoint never blocks the Fetcher's next message.
package delivery

import "github.com/mailaggregator/mailaggregator/internal/model"

// Task is one unit of fan-out work: notify the configured channels about
// a single message that just cleared the rule engine.
type Task struct {
	Account  *model.Account
	Message  *model.Message
	Decision model.Decision
}
