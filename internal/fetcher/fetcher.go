// Package fetcher implements the Fetcher (C4): for one account, pull new
// messages via the IMAP client, persist them exactly once, classify them
// through the rule engine, and queue delivery side effects.
package fetcher

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mailaggregator/mailaggregator/internal/cipher"
	"github.com/mailaggregator/mailaggregator/internal/delivery"
	"github.com/mailaggregator/mailaggregator/internal/imapclient"
	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/pollstatus"
	"github.com/mailaggregator/mailaggregator/internal/rules"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

// Fetcher runs one account's poll loop. A single instance is shared by
// the Scheduler's cron callbacks and the on-demand-fetch API handler, so
// both paths serialize through the same single-flight group: a second
// attempt while one is already in flight is a no-op.
type Fetcher struct {
	store      *store.Store
	cipher     *cipher.Cipher
	queue      *delivery.Queue
	pollStatus *pollstatus.Recorder
	logger     *slog.Logger
	opts       imapclient.Options
	sf         singleflight.Group
}

// New builds a Fetcher. opts carries the process-wide IMAP timeouts and
// lookback window.
func New(st *store.Store, c *cipher.Cipher, q *delivery.Queue, ps *pollstatus.Recorder, logger *slog.Logger, opts imapclient.Options) *Fetcher {
	return &Fetcher{
		store:      st,
		cipher:     c,
		queue:      q,
		pollStatus: ps,
		logger:     logger.With("component", "fetcher"),
		opts:       opts,
	}
}

// Run executes one poll for accountID, sharing its result with any
// concurrent caller for the same account.
func (f *Fetcher) Run(ctx context.Context, accountID int64) error {
	key := strconv.FormatInt(accountID, 10)
	_, err, _ := f.sf.Do(key, func() (interface{}, error) {
		return nil, f.run(ctx, accountID)
	})
	return err
}

func (f *Fetcher) run(ctx context.Context, accountID int64) error {
	if err := f.pollStatus.RecordStart(ctx, accountID); err != nil {
		f.logger.Error("record poll start", "account_id", accountID, "error", err)
	}

	var runErr error
	defer func() {
		finished := time.Now().UTC()
		var err error
		if runErr != nil {
			err = f.pollStatus.RecordFailure(ctx, accountID, finished, runErr)
		} else {
			err = f.pollStatus.RecordSuccess(ctx, accountID, finished)
		}
		if err != nil {
			f.logger.Error("record poll finish", "account_id", accountID, "error", err)
		}
	}()

	account, err := f.store.GetAccount(ctx, accountID)
	if err != nil {
		runErr = err
		return err
	}

	plaintext, err := f.cipher.Decrypt(account.CredentialCiphertext)
	if err != nil {
		runErr = err
		return err
	}

	settings, err := f.store.GetSettings(ctx)
	if err != nil {
		runErr = err
		return err
	}

	rulesForAccount, err := f.store.ListRules(ctx, accountID)
	if err != nil {
		runErr = err
		return err
	}

	imapAccount := imapclient.Account{
		Email:    account.Email,
		Password: string(plaintext),
		Host:     account.Host,
		Port:     account.Port,
	}
	opts := f.opts
	// Select INBOX read-write whenever mirroring is settings-enabled, so a
	// rule added mid-session doesn't need a fresh connection to act on it.
	opts.AllowMarkRead = settings.MirrorMarkReadToIMAP

	messages, newWatermark, err := imapclient.FetchNew(imapAccount, account.LastUIDWatermark, opts)
	if err != nil {
		runErr = err
		return err
	}

	for _, raw := range messages {
		if err := f.processMessage(ctx, account, settings, rulesForAccount, raw, imapAccount, opts); err != nil {
			f.logger.Error("process message", "account_id", accountID, "message_id", raw.MessageID, "error", err)
		}
	}

	if err := f.store.UpdateWatermark(ctx, accountID, newWatermark); err != nil {
		runErr = err
		return err
	}
	return nil
}

// processMessage is the per-message pipeline: persist, classify,
// optionally mirror mark-read, and enqueue delivery.
func (f *Fetcher) processMessage(
	ctx context.Context,
	account *model.Account,
	settings *model.Settings,
	rulesForAccount []*model.Rule,
	raw imapclient.Message,
	imapAccount imapclient.Account,
	opts imapclient.Options,
) error {
	msg := &model.Message{
		AccountID:      account.ID,
		MessageID:      raw.MessageID,
		Subject:        raw.Subject,
		Sender:         raw.Sender,
		BodyText:       raw.BodyText,
		BodyHTML:       raw.BodyHTML,
		ContentSummary: model.Summarize(raw.BodyText),
		ReceivedAt:     raw.Date,
	}

	persisted, inserted, err := f.store.InsertMessageIfNew(ctx, msg)
	if err != nil {
		return err
	}
	if !inserted {
		// Duplicate: downstream side effects already happened or were
		// waived in a prior run.
		return nil
	}
	f.pollStatus.RecordMessageIngested(account.ID)

	decision := rules.Evaluate(rules.Input{
		AccountID: account.ID,
		Sender:    persisted.Sender,
		Subject:   persisted.Subject,
		Body:      persisted.BodyText,
	}, account.TelegramPushEnabled, rulesForAccount)

	if err := f.store.ApplyRuleDecision(ctx, persisted.ID, decision.AddLabels, decision.MarkRead); err != nil {
		return err
	}
	persisted.SetLabels(decision.AddLabels)
	persisted.IsRead = persisted.IsRead || decision.MarkRead

	if decision.MarkRead && settings.MirrorMarkReadToIMAP {
		go f.mirrorMarkRead(imapAccount, raw.UID, opts)
	}

	f.queue.Enqueue(delivery.Task{
		Account:  account,
		Message:  persisted,
		Decision: decision,
	})

	return nil
}

// mirrorMarkRead issues the server-side \Seen flag without blocking the
// per-message pipeline. Failures are logged only: the local is_read
// flag is already authoritative.
func (f *Fetcher) mirrorMarkRead(account imapclient.Account, uid uint32, opts imapclient.Options) {
	if err := imapclient.MarkRead(account, uid, opts); err != nil {
		f.logger.Warn("mirror mark-read to IMAP failed", "uid", uid, "error", err)
	}
}
