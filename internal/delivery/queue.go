package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

// Queue is the bounded task channel drained by a small worker pool:
// Enqueue never blocks the caller (a full queue drops the task and
// logs), and each worker processes one task to completion before
// pulling the next. A delivery failure never rolls back the message
// persistence or labeling that already happened.
type Queue struct {
	store  *store.Store
	logger *slog.Logger

	tasks   chan Task
	workers int

	httpTimeout time.Duration

	mu       sync.RWMutex
	telegram *telegramSender
	tgToken  string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue builds a Queue with the given worker count and HTTP timeout
// for webhook/Telegram sends.
func NewQueue(st *store.Store, logger *slog.Logger, httpTimeout time.Duration, workers int) *Queue {
	if workers <= 0 {
		workers = 4
	}
	return &Queue{
		store:       st,
		logger:      logger.With("component", "delivery"),
		tasks:       make(chan Task, 256),
		workers:     workers,
		httpTimeout: httpTimeout,
	}
}

// Start launches the worker pool. Stop cancels it and waits for in-flight
// tasks to finish.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Enqueue submits a task without blocking the Fetcher; a full queue drops
// the task, which is acceptable under an at-most-once/best-effort
// delivery contract.
func (q *Queue) Enqueue(task Task) {
	select {
	case q.tasks <- task:
	default:
		q.logger.Warn("delivery queue full, dropping task",
			"account_id", task.Account.ID, "message_id", task.Message.ID)
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case task := <-q.tasks:
			q.process(task)
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) process(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.httpTimeout)
	defer cancel()

	settings, err := q.store.GetSettings(ctx)
	if err != nil {
		q.logger.Error("delivery: load settings", "error", err)
		return
	}

	if task.Decision.PushTelegramEffective(task.Account.TelegramPushEnabled) {
		q.sendTelegram(ctx, settings, task)
	}
	if settings.WebhookURL != "" {
		q.sendWebhook(ctx, settings, task)
	}
}

func (q *Queue) sendTelegram(ctx context.Context, settings *model.Settings, task Task) {
	if settings.TelegramBotToken == "" || settings.TelegramChatID == "" {
		return
	}

	filters, err := q.store.ListPushFilters(ctx, task.Account.ID)
	if err != nil {
		q.logger.Error("delivery: load push filters", "account_id", task.Account.ID, "error", err)
		return
	}
	if !allowed(filters, task.Message.Sender, task.Message.Subject, task.Message.BodyText) {
		return
	}

	sender, err := q.telegramSender(settings.TelegramBotToken)
	if err != nil {
		q.logger.Error("delivery: telegram client", "error", err)
		return
	}

	text := renderTelegram(task.Account, task.Message)
	if err := sender.send(ctx, settings.TelegramChatID, text); err != nil {
		q.logger.Warn("delivery: telegram send failed",
			"account_id", task.Account.ID, "message_id", task.Message.ID, "error", err)
	}
}

func (q *Queue) sendWebhook(ctx context.Context, settings *model.Settings, task Task) {
	sender := newWebhookSender(settings.WebhookURL, q.httpTimeout)
	if err := sender.send(ctx, task.Account, task.Message); err != nil {
		q.logger.Warn("delivery: webhook send failed",
			"account_id", task.Account.ID, "message_id", task.Message.ID, "error", err)
	}
}

// telegramSender lazily builds (and rebuilds on token change) the shared
// Bot API client, mirroring the settings-cache invalidation pattern used
// for the rest of the service.
func (q *Queue) telegramSender(token string) (*telegramSender, error) {
	q.mu.RLock()
	if q.telegram != nil && q.tgToken == token {
		sender := q.telegram
		q.mu.RUnlock()
		return sender, nil
	}
	q.mu.RUnlock()

	sender, err := newTelegramSender(token)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.telegram = sender
	q.tgToken = token
	q.mu.Unlock()
	return sender, nil
}
