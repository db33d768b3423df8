package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// telegramSender pushes a rendered message to one chat via the Bot API.
type telegramSender struct {
	bot    *bot.Bot
	chatID string
}

func newTelegramSender(token string) (*telegramSender, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("delivery: telegram: %w", err)
	}
	return &telegramSender{bot: b}, nil
}

// send retries 5 attempts total, 1s initial backoff doubling each
// attempt. The Bot API client does not surface the HTTP
// status code on failure, so every send error is treated as retryable —
// unlike the webhook sender, which retries only 5xx/429 because it talks
// HTTP directly.
func (t *telegramSender) send(ctx context.Context, chatID, text string) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}

	const maxAttempts = 5
	wait := 1 * time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, err := t.bot.SendMessage(ctx, params); err != nil {
			lastErr = err
			if attempt == maxAttempts {
				break
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
			continue
		}
		return nil
	}
	return fmt.Errorf("delivery: telegram send to %s: %w", chatID, lastErr)
}
