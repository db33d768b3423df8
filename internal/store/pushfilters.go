package store

import (
	"context"
	"fmt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// ListPushFilters returns an account's push filters in rule_order
// ascending.
func (s *Store) ListPushFilters(ctx context.Context, accountID int64) ([]*model.PushFilter, error) {
	var filters []*model.PushFilter
	err := s.db.SelectContext(ctx, &filters, `
		SELECT * FROM push_filters WHERE account_id = ? ORDER BY rule_order ASC, id ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: list push filters: %w", err)
	}
	return filters, nil
}

// CreatePushFilter inserts a new per-account push filter.
func (s *Store) CreatePushFilter(ctx context.Context, f *model.PushFilter) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO push_filters (account_id, field, mode, value, rule_order)
		VALUES (?, ?, ?, ?, ?)
	`, f.AccountID, f.Field, f.Mode, f.Value, f.RuleOrder)
	if err != nil {
		return fmt.Errorf("store: create push filter: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create push filter: %w", err)
	}
	f.ID = id
	return nil
}

// DeletePushFilter removes one push filter by ID.
func (s *Store) DeletePushFilter(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM push_filters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete push filter: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: push filter %d: %w", id, model.ErrNotFound)
	}
	return nil
}
