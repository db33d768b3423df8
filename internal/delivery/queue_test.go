package delivery

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

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

func TestQueue_ProcessesTaskAndSendsWebhook(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := newTestStore(t)
	ctx := context.Background()
	webhookURL := srv.URL
	_, err := st.PatchSettings(ctx, model.SettingsPatch{WebhookURL: &webhookURL})
	require.NoError(t, err)

	q := NewQueue(st, testLogger(), 5*time.Second, 2)
	q.Start(ctx)
	defer q.Stop()

	account := &model.Account{ID: 1, Email: "a@x.com"}
	msg := &model.Message{ID: 1, Subject: "hi", MessageID: "m1"}
	q.Enqueue(Task{Account: account, Message: msg, Decision: model.Decision{}})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&hits) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_EnqueueDropsWhenFull(t *testing.T) {
	st := newTestStore(t)
	q := NewQueue(st, testLogger(), time.Second, 1)
	q.tasks = make(chan Task, 1) // shrink for the test, worker pool not started

	account := &model.Account{ID: 1}
	msg := &model.Message{ID: 1}

	q.Enqueue(Task{Account: account, Message: msg})
	// Second enqueue must not block even though the channel is now full.
	done := make(chan struct{})
	go func() {
		q.Enqueue(Task{Account: account, Message: msg})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
