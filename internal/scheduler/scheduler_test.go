package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

// No second fetch for an account begins before the first completes.
// countingRunner records concurrent-call depth.
type countingRunner struct {
	mu       sync.Mutex
	inFlight int32
	maxSeen  int32
	calls    int32
}

func (r *countingRunner) Run(ctx context.Context, accountID int64) error {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)

	r.mu.Lock()
	if n > r.maxSeen {
		r.maxSeen = n
	}
	r.mu.Unlock()

	atomic.AddInt32(&r.calls, 1)
	time.Sleep(10 * time.Millisecond)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir() + "/test.db")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunNow_BypassesCronButStillCallsFetcher(t *testing.T) {
	st := newTestStore(t)
	runner := &countingRunner{}
	s := New(st, runner, testLogger())

	require.NoError(t, s.RunNow(context.Background(), 1))
	assert.EqualValues(t, 1, runner.calls)
}

func TestOnAccountActivatedThenDeactivated_RemovesScheduledEntry(t *testing.T) {
	st := newTestStore(t)
	runner := &countingRunner{}
	s := New(st, runner, testLogger())

	account := &model.Account{ID: 42}
	s.OnAccountActivated(context.Background(), account)

	s.mu.Lock()
	_, scheduled := s.entries[42]
	s.mu.Unlock()
	assert.True(t, scheduled)

	s.OnAccountDeactivated(42)

	s.mu.Lock()
	_, stillScheduled := s.entries[42]
	s.mu.Unlock()
	assert.False(t, stillScheduled)
}
