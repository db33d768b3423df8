package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// GetPollStatus returns an account's poll status, or a zero-value status
// if the account has never been polled.
func (s *Store) GetPollStatus(ctx context.Context, accountID int64) (*model.PollStatus, error) {
	var ps model.PollStatus
	err := s.db.GetContext(ctx, &ps, `SELECT * FROM poll_status WHERE account_id = ?`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.PollStatus{AccountID: accountID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get poll status: %w", err)
	}
	return &ps, nil
}

// ListPollStatus returns every account's poll status, used by
// GET /accounts/status and /health.
func (s *Store) ListPollStatus(ctx context.Context) ([]*model.PollStatus, error) {
	var statuses []*model.PollStatus
	if err := s.db.SelectContext(ctx, &statuses, `SELECT * FROM poll_status`); err != nil {
		return nil, fmt.Errorf("store: list poll status: %w", err)
	}
	return statuses, nil
}

// RecordPollStatus upserts a partial poll-status update. last_success_at
// is enforced monotonic here: a patch that would set it earlier than
// the stored value is ignored for that field.
func (s *Store) RecordPollStatus(ctx context.Context, accountID int64, patch model.PollStatusPatch) error {
	current, err := s.GetPollStatus(ctx, accountID)
	if err != nil {
		return err
	}

	if patch.LastStartedAt != nil {
		current.LastStartedAt = patch.LastStartedAt
	}
	if patch.LastFinishedAt != nil {
		current.LastFinishedAt = patch.LastFinishedAt
	}
	if patch.LastSuccessAt != nil {
		if current.LastSuccessAt == nil || patch.LastSuccessAt.After(*current.LastSuccessAt) {
			current.LastSuccessAt = patch.LastSuccessAt
		}
	}
	if patch.ClearError {
		current.LastError = ""
	} else if patch.LastError != nil {
		current.LastError = *patch.LastError
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO poll_status (account_id, last_started_at, last_finished_at, last_success_at, last_error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			last_started_at = excluded.last_started_at,
			last_finished_at = excluded.last_finished_at,
			last_success_at = excluded.last_success_at,
			last_error = excluded.last_error
	`, accountID, current.LastStartedAt, current.LastFinishedAt, current.LastSuccessAt, current.LastError)
	if err != nil {
		return fmt.Errorf("store: record poll status: %w", err)
	}
	return nil
}
