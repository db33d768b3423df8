package httpapi

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mailaggregator/mailaggregator/internal/auth"
	"github.com/mailaggregator/mailaggregator/internal/cipher"
	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

type fakeScheduler struct {
	activated   []int64
	deactivated []int64
}

func (f *fakeScheduler) OnAccountActivated(ctx context.Context, account *model.Account) {
	f.activated = append(f.activated, account.ID)
}
func (f *fakeScheduler) OnAccountDeactivated(accountID int64) {
	f.deactivated = append(f.deactivated, accountID)
}
func (f *fakeScheduler) OnAccountIntervalChanged(ctx context.Context, account *model.Account)  {}
func (f *fakeScheduler) OnGlobalIntervalChanged(ctx context.Context, newDefault time.Duration) {}
func (f *fakeScheduler) RunNow(ctx context.Context, accountID int64) error                     { return nil }

type fakePollStatus struct{}

func (fakePollStatus) Get(ctx context.Context, accountID int64) (*model.PollStatus, error) {
	return &model.PollStatus{AccountID: accountID}, nil
}
func (fakePollStatus) List(ctx context.Context) ([]*model.PollStatus, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *fakeScheduler, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(t.TempDir() + "/test.db")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	c, err := cipher.New(make([]byte, cipher.KeySize))
	require.NoError(t, err)

	sched := &fakeScheduler{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := New(st, c, sched, fakePollStatus{}, tokens, logger, "admin", "reset-token")
	return s, sched, st
}

func authHeader(t *testing.T, s *Server) string {
	t.Helper()
	token, err := s.tokens.Issue("admin")
	require.NoError(t, err)
	return "Bearer " + token
}
