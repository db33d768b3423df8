package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// ListRules returns both account-scoped and global rules applicable to
// accountID, already sorted (rule_order ASC, id ASC).
func (s *Store) ListRules(ctx context.Context, accountID int64) ([]*model.Rule, error) {
	var rules []*model.Rule
	err := s.db.SelectContext(ctx, &rules, `
		SELECT * FROM rules
		WHERE account_id IS NULL OR account_id = ?
		ORDER BY rule_order ASC, id ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: list rules: %w", err)
	}
	return rules, nil
}

// ListAllRules returns every rule, regardless of scope, used by the API
// rule-management listing.
func (s *Store) ListAllRules(ctx context.Context) ([]*model.Rule, error) {
	var rules []*model.Rule
	err := s.db.SelectContext(ctx, &rules, `SELECT * FROM rules ORDER BY rule_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list all rules: %w", err)
	}
	return rules, nil
}

// CreateRule inserts a new rule.
func (s *Store) CreateRule(ctx context.Context, r *model.Rule) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (name, rule_order, account_id, sender_pattern,
			subject_pattern, body_pattern, add_labels, push_telegram, mark_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Name, r.RuleOrder, r.AccountID, r.SenderPattern, r.SubjectPattern,
		r.BodyPattern, r.AddLabelsJSON, r.PushTelegram, r.MarkRead)
	if err != nil {
		return fmt.Errorf("store: create rule: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create rule: %w", err)
	}
	r.ID = id
	return nil
}

// GetRule returns one rule by ID.
func (s *Store) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	var r model.Rule
	err := s.db.GetContext(ctx, &r, `SELECT * FROM rules WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: rule %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get rule: %w", err)
	}
	return &r, nil
}

// RulePatch carries present/absent semantics for PATCH /rules/{id}.
type RulePatch struct {
	Name           *string
	RuleOrder      *int
	AccountID      **int64
	SenderPattern  *string
	SubjectPattern *string
	BodyPattern    *string
	AddLabels      *[]string
	PushTelegram   *bool
	MarkRead       *bool
}

// UpdateRule applies a partial patch to a rule.
func (s *Store) UpdateRule(ctx context.Context, id int64, patch RulePatch) error {
	r, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}

	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.RuleOrder != nil {
		r.RuleOrder = *patch.RuleOrder
	}
	if patch.AccountID != nil {
		r.AccountID = *patch.AccountID
	}
	if patch.SenderPattern != nil {
		r.SenderPattern = *patch.SenderPattern
	}
	if patch.SubjectPattern != nil {
		r.SubjectPattern = *patch.SubjectPattern
	}
	if patch.BodyPattern != nil {
		r.BodyPattern = *patch.BodyPattern
	}
	if patch.AddLabels != nil {
		r.SetAddLabels(*patch.AddLabels)
	}
	if patch.PushTelegram != nil {
		r.PushTelegram = *patch.PushTelegram
	}
	if patch.MarkRead != nil {
		r.MarkRead = *patch.MarkRead
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE rules SET name=?, rule_order=?, account_id=?, sender_pattern=?,
			subject_pattern=?, body_pattern=?, add_labels=?, push_telegram=?, mark_read=?
		WHERE id=?
	`, r.Name, r.RuleOrder, r.AccountID, r.SenderPattern, r.SubjectPattern,
		r.BodyPattern, r.AddLabelsJSON, r.PushTelegram, r.MarkRead, id)
	if err != nil {
		return fmt.Errorf("store: update rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete rule: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: rule %d: %w", id, model.ErrNotFound)
	}
	return nil
}
