// Package pollstatus implements Poll Status (C8): a thin read/write-through
// over the store's poll_status table that also exports Prometheus
// gauges/counters, used by the UI health panel and /health.
package pollstatus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

// Recorder wraps store poll-status writes with metric updates.
type Recorder struct {
	store *store.Store

	lastSuccess   *prometheus.GaugeVec
	lastError     *prometheus.GaugeVec
	messagesTotal *prometheus.CounterVec
	pollsTotal    *prometheus.CounterVec
}

// NewRecorder registers the package's metrics with the default
// Prometheus registry (promauto, as in the cache layer's metrics).
func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{
		store: st,
		lastSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mailaggregator_account_last_success_timestamp",
			Help: "Unix timestamp of the account's last fully successful poll.",
		}, []string{"account_id"}),
		lastError: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mailaggregator_account_last_error_info",
			Help: "1 if the account's most recent poll ended in error, 0 otherwise.",
		}, []string{"account_id"}),
		messagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailaggregator_messages_ingested_total",
			Help: "Total messages persisted per account.",
		}, []string{"account_id"}),
		pollsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailaggregator_polls_total",
			Help: "Total poll attempts per account, by outcome.",
		}, []string{"account_id", "outcome"}),
	}
}

// RecordStart marks the beginning of a poll loop.
func (r *Recorder) RecordStart(ctx context.Context, accountID int64) error {
	now := time.Now().UTC()
	return r.store.RecordPollStatus(ctx, accountID, model.PollStatusPatch{LastStartedAt: &now})
}

// RecordSuccess marks a fully completed, error-free poll loop.
func (r *Recorder) RecordSuccess(ctx context.Context, accountID int64, finishedAt time.Time) error {
	label := strconv.FormatInt(accountID, 10)
	r.lastSuccess.WithLabelValues(label).Set(float64(finishedAt.Unix()))
	r.lastError.WithLabelValues(label).Set(0)
	r.pollsTotal.WithLabelValues(label, "success").Inc()

	return r.store.RecordPollStatus(ctx, accountID, model.PollStatusPatch{
		LastFinishedAt: &finishedAt,
		LastSuccessAt:  &finishedAt,
		ClearError:     true,
	})
}

// RecordFailure marks a poll loop that ended in a transient/auth/transport
// error. last_success_at is left untouched: it only advances on a
// fully completed fetch loop with no errors.
func (r *Recorder) RecordFailure(ctx context.Context, accountID int64, finishedAt time.Time, pollErr error) error {
	label := strconv.FormatInt(accountID, 10)
	r.lastError.WithLabelValues(label).Set(1)
	r.pollsTotal.WithLabelValues(label, "failure").Inc()

	msg := pollErr.Error()
	return r.store.RecordPollStatus(ctx, accountID, model.PollStatusPatch{
		LastFinishedAt: &finishedAt,
		LastError:      &msg,
	})
}

// RecordMessageIngested increments the per-account ingestion counter.
func (r *Recorder) RecordMessageIngested(accountID int64) {
	r.messagesTotal.WithLabelValues(strconv.FormatInt(accountID, 10)).Inc()
}

// Get returns one account's poll status.
func (r *Recorder) Get(ctx context.Context, accountID int64) (*model.PollStatus, error) {
	return r.store.GetPollStatus(ctx, accountID)
}

// List returns every account's poll status.
func (r *Recorder) List(ctx context.Context) ([]*model.PollStatus, error) {
	return r.store.ListPollStatus(ctx)
}
