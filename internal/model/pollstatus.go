package model

import "time"

// PollStatus is the per-account health projection surfaced read-only via
// the API and /health.
type PollStatus struct {
	AccountID      int64      `db:"account_id"`
	LastStartedAt  *time.Time `db:"last_started_at"`
	LastFinishedAt *time.Time `db:"last_finished_at"`
	LastSuccessAt  *time.Time `db:"last_success_at"`
	LastError      string     `db:"last_error"`
}

// PollStatusPatch is an in-place, partial update to one account's status.
// Nil fields are left unchanged; ClearError resets LastError to "".
type PollStatusPatch struct {
	LastStartedAt  *time.Time
	LastFinishedAt *time.Time
	LastSuccessAt  *time.Time
	LastError      *string
	ClearError     bool
}
