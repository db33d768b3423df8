package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// CreateAccount inserts a new account and assigns it an ID.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	now := nowUTC()
	query := `
		INSERT INTO accounts (email, provider_tag, host, port, credential_ciphertext,
			is_active, sort_order, poll_interval_seconds, telegram_push_enabled,
			push_template, last_uid_watermark, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		a.Email, a.ProviderTag, a.Host, a.Port, a.CredentialCiphertext,
		a.IsActive, a.SortOrder, a.PollIntervalSeconds, a.TelegramPushEnabled,
		a.PushTemplate, a.LastUIDWatermark, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: create account: %w: %w", model.ErrConflict, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create account: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAccount returns one account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	var a model.Account
	err := s.db.GetContext(ctx, &a, `SELECT * FROM accounts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: account %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get account: %w", err)
	}
	return &a, nil
}

// ListAccounts returns accounts ordered by sort_order ASC, id ASC,
// optionally filtered to active-only.
func (s *Store) ListAccounts(ctx context.Context, activeOnly bool) ([]*model.Account, error) {
	query := `SELECT * FROM accounts`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY sort_order ASC, id ASC`

	var accounts []*model.Account
	if err := s.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount applies a partial patch to an account. A non-nil
// credentialCiphertext is expected to already be ciphertext: callers
// encrypt before calling this, keeping decryption scoped as narrowly
// as possible.
func (s *Store) UpdateAccount(ctx context.Context, id int64, patch model.AccountPatch, credentialCiphertext []byte) error {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	if patch.Host != nil {
		a.Host = *patch.Host
	}
	if patch.Port != nil {
		a.Port = *patch.Port
	}
	if credentialCiphertext != nil {
		a.CredentialCiphertext = credentialCiphertext
	}
	if patch.IsActive != nil {
		a.IsActive = *patch.IsActive
	}
	if patch.SortOrder != nil {
		a.SortOrder = *patch.SortOrder
	}
	if patch.PollIntervalSeconds != nil {
		a.PollIntervalSeconds = *patch.PollIntervalSeconds
	}
	if patch.TelegramPushEnabled != nil {
		a.TelegramPushEnabled = *patch.TelegramPushEnabled
	}
	if patch.PushTemplate != nil {
		a.PushTemplate = *patch.PushTemplate
	}

	now := nowUTC()
	query := `
		UPDATE accounts SET host=?, port=?, credential_ciphertext=?, is_active=?,
			sort_order=?, poll_interval_seconds=?, telegram_push_enabled=?,
			push_template=?, updated_at=?
		WHERE id=?
	`
	_, err = s.db.ExecContext(ctx, query,
		a.Host, a.Port, a.CredentialCiphertext, a.IsActive, a.SortOrder,
		a.PollIntervalSeconds, a.TelegramPushEnabled, a.PushTemplate, now, id,
	)
	if err != nil {
		return fmt.Errorf("store: update account: %w", err)
	}
	return nil
}

// UpdateWatermark persists the new IMAP watermark after a successful
// fetch.
func (s *Store) UpdateWatermark(ctx context.Context, accountID int64, watermark string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET last_uid_watermark = ?, updated_at = ? WHERE id = ?`,
		watermark, nowUTC(), accountID)
	if err != nil {
		return fmt.Errorf("store: update watermark: %w", err)
	}
	return nil
}

// DeleteAccount removes an account; ON DELETE CASCADE drops its messages,
// scoped rules and push filters.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete account: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: account %d: %w", id, model.ErrNotFound)
	}
	return nil
}
