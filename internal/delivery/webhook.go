package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// webhookPayload is the JSON body POSTed for a new, rule-classified
// message.
type webhookPayload struct {
	AccountEmail string   `json:"account_email"`
	Subject      string   `json:"subject"`
	Sender       string   `json:"sender"`
	ReceivedAt   string   `json:"received_at"`
	Summary      string   `json:"summary"`
	Labels       []string `json:"labels"`
	MessageID    string   `json:"message_id"`
}

type webhookSender struct {
	client *resty.Client
	url    string
}

func newWebhookSender(url string, timeout time.Duration) *webhookSender {
	return &webhookSender{client: newHTTPClient(timeout), url: url}
}

func (w *webhookSender) send(ctx context.Context, account *model.Account, msg *model.Message) error {
	payload := webhookPayload{
		AccountEmail: account.Email,
		Subject:      msg.Subject,
		Sender:       msg.Sender,
		ReceivedAt:   msg.ReceivedAt.Format(time.RFC3339),
		Summary:      msg.ContentSummary,
		Labels:       msg.Labels(),
		MessageID:    msg.MessageID,
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("delivery: webhook post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("delivery: webhook post: status %d", resp.StatusCode())
	}
	return nil
}
