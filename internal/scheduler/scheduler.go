// Package scheduler implements the Scheduler (C5): one concurrent poll
// loop per active account, each on its own interval, reacting to account
// lifecycle and global interval changes.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

// runner is the subset of Fetcher the scheduler depends on.
type runner interface {
	Run(ctx context.Context, accountID int64) error
}

// Scheduler owns one *cron.Cron engine and a per-account entry map.
// cron.Every(interval) supplies a ConstantDelaySchedule, which is a
// closer primitive than a hand-rolled ticker loop for running one
// concurrent loop per active account with its own interval.
type Scheduler struct {
	store   *store.Store
	fetcher runner
	logger  *slog.Logger
	cron    *cron.Cron

	mu       sync.Mutex
	entries  map[int64]cron.EntryID
	interval map[int64]time.Duration // the interval each entry was scheduled with; recorded only, not read back
	inherits map[int64]bool
}

// New builds a Scheduler. It does not start polling until Start is called.
func New(st *store.Store, f runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    st,
		fetcher:  f,
		logger:   logger.With("component", "scheduler"),
		cron:     cron.New(),
		entries:  make(map[int64]cron.EntryID),
		interval: make(map[int64]time.Duration),
		inherits: make(map[int64]bool),
	}
}

// Start loads every active account and schedules its poll loop, then
// starts the cron engine.
func (s *Scheduler) Start(ctx context.Context) error {
	accounts, err := s.store.ListAccounts(ctx, true)
	if err != nil {
		return err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	globalDefault := time.Duration(settings.PollIntervalSeconds) * time.Second

	for _, a := range accounts {
		s.schedule(ctx, a, globalDefault)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron engine and waits for any running entries to finish.
func (s *Scheduler) Stop() {
	c := s.cron.Stop()
	<-c.Done()
}

// OnAccountActivated schedules a new loop for an account that just became
// active, whether newly created or reactivated.
func (s *Scheduler) OnAccountActivated(ctx context.Context, account *model.Account) {
	globalDefault := s.currentGlobalInterval(ctx)
	s.schedule(ctx, account, globalDefault)
}

// OnAccountDeactivated removes an account's scheduled loop, whether the
// account was deactivated or deleted. An in-flight iteration is allowed
// to finish; cron.Remove only prevents the next tick.
func (s *Scheduler) OnAccountDeactivated(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[accountID]; ok {
		s.cron.Remove(id)
		delete(s.entries, accountID)
		delete(s.interval, accountID)
		delete(s.inherits, accountID)
	}
}

// OnAccountIntervalChanged reschedules one account after its own
// poll_interval_seconds is patched (nil means it now inherits global).
func (s *Scheduler) OnAccountIntervalChanged(ctx context.Context, account *model.Account) {
	s.OnAccountDeactivated(account.ID)
	if account.IsActive {
		s.OnAccountActivated(ctx, account)
	}
}

// OnGlobalIntervalChanged reschedules every account that is currently
// inheriting the global default, so loops that inherit pick up the new
// value immediately rather than waiting for one stale tick.
func (s *Scheduler) OnGlobalIntervalChanged(ctx context.Context, newDefault time.Duration) {
	s.mu.Lock()
	var toReschedule []int64
	for accountID, inherits := range s.inherits {
		if inherits {
			toReschedule = append(toReschedule, accountID)
		}
	}
	s.mu.Unlock()

	for _, accountID := range toReschedule {
		account, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			continue
		}
		s.OnAccountDeactivated(accountID)
		s.schedule(ctx, account, newDefault)
	}
}

// RunNow invokes the Fetcher once immediately, bypassing the cron engine
// but still serialized by the Fetcher's own single-flight lock. Used by
// the on-demand fetch API endpoint.
func (s *Scheduler) RunNow(ctx context.Context, accountID int64) error {
	return s.fetcher.Run(ctx, accountID)
}

func (s *Scheduler) schedule(ctx context.Context, account *model.Account, globalDefault time.Duration) {
	interval := account.EffectiveInterval(globalDefault)
	accountID := account.ID

	schedule := cron.Every(interval)
	id := s.cron.Schedule(schedule, cron.FuncJob(func() {
		if err := s.fetcher.Run(context.Background(), accountID); err != nil {
			s.logger.Error("scheduled fetch failed", "account_id", accountID, "error", err)
		}
	}))

	s.mu.Lock()
	s.entries[accountID] = id
	s.interval[accountID] = interval
	s.inherits[accountID] = account.PollIntervalSeconds == nil
	s.mu.Unlock()
}

func (s *Scheduler) currentGlobalInterval(ctx context.Context) time.Duration {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return 5 * time.Minute
	}
	return time.Duration(settings.PollIntervalSeconds) * time.Second
}
