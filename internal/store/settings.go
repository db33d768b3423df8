package store

import (
	"context"
	"fmt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// GetSettings returns a consistent snapshot of the singleton settings
// row. Concurrent readers may share the cached copy; GetSettings only
// hits the database on a cold cache.
func (s *Store) GetSettings(ctx context.Context) (*model.Settings, error) {
	s.settingsMu.RLock()
	if s.settings != nil {
		cached := *s.settings
		s.settingsMu.RUnlock()
		return &cached, nil
	}
	s.settingsMu.RUnlock()

	var row model.Settings
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM settings WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("store: get settings: %w", err)
	}

	s.settingsMu.Lock()
	s.settings = &row
	s.settingsMu.Unlock()

	cached := row
	return &cached, nil
}

// PatchSettings applies a partial update under the writer lock and
// invalidates the cache synchronously before returning, so the very next
// GetSettings call (even on another goroutine) observes the write.
func (s *Store) PatchSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	var current model.Settings
	if err := s.db.GetContext(ctx, &current, `SELECT * FROM settings WHERE id = 1`); err != nil {
		return nil, fmt.Errorf("store: patch settings: load: %w", err)
	}

	if patch.TelegramBotToken != nil {
		current.TelegramBotToken = *patch.TelegramBotToken
	}
	if patch.TelegramChatID != nil {
		current.TelegramChatID = *patch.TelegramChatID
	}
	if patch.PollIntervalSeconds != nil {
		current.PollIntervalSeconds = *patch.PollIntervalSeconds
	}
	if patch.WebhookURL != nil {
		current.WebhookURL = *patch.WebhookURL
	}
	if patch.APIToken != nil {
		current.APIToken = *patch.APIToken
	}
	if patch.RetentionKeepDays != nil {
		current.RetentionKeepDays = *patch.RetentionKeepDays
	}
	if patch.RetentionKeepPerAccount != nil {
		current.RetentionKeepPerAccount = *patch.RetentionKeepPerAccount
	}
	if patch.MirrorMarkReadToIMAP != nil {
		current.MirrorMarkReadToIMAP = *patch.MirrorMarkReadToIMAP
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE settings SET telegram_bot_token=?, telegram_chat_id=?,
			poll_interval_seconds=?, webhook_url=?, api_token=?,
			retention_keep_days=?, retention_keep_per_account=?,
			mirror_mark_read_to_imap=?
		WHERE id=1
	`, current.TelegramBotToken, current.TelegramChatID, current.PollIntervalSeconds,
		current.WebhookURL, current.APIToken, current.RetentionKeepDays,
		current.RetentionKeepPerAccount, current.MirrorMarkReadToIMAP)
	if err != nil {
		return nil, fmt.Errorf("store: patch settings: %w", err)
	}

	s.settings = &current
	snapshot := current
	return &snapshot, nil
}
