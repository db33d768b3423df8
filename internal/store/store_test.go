package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := New(path)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func seedAccount(t *testing.T, st *Store) *model.Account {
	t.Helper()
	a := &model.Account{
		Email:                "a@x.com",
		Host:                 "imap.x.com",
		Port:                 993,
		CredentialCiphertext: []byte("ciphertext"),
		IsActive:             true,
		TelegramPushEnabled:  true,
		PushTemplate:         model.TemplateShort,
	}
	require.NoError(t, st.CreateAccount(context.Background(), a))
	return a
}

// Observing the same (account, message_id) twice leaves exactly one
// row, even across a restart re-observing the same message.
func TestInsertMessageIfNew_DedupAcrossRepeatedInserts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := seedAccount(t, st)

	msg := &model.Message{AccountID: account.ID, MessageID: "a@x", Subject: "hi", ReceivedAt: time.Now()}
	_, inserted, err := st.InsertMessageIfNew(ctx, msg)
	require.NoError(t, err)
	require.True(t, inserted)

	// Same tick, same message again (simulating a restart re-observing it).
	dup := &model.Message{AccountID: account.ID, MessageID: "a@x", Subject: "hi", ReceivedAt: time.Now()}
	_, insertedAgain, err := st.InsertMessageIfNew(ctx, dup)
	require.NoError(t, err)
	require.False(t, insertedAgain)

	_, total, err := st.QueryMessages(ctx, MessageFilter{AccountID: &account.ID}, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestSettings_PatchInvalidatesCacheSynchronously(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	original, err := st.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 300, original.PollIntervalSeconds)

	newInterval := 120
	_, err = st.PatchSettings(ctx, model.SettingsPatch{PollIntervalSeconds: &newInterval})
	require.NoError(t, err)

	after, err := st.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 120, after.PollIntervalSeconds)
}

func TestDeleteAccount_CascadesMessages(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := seedAccount(t, st)

	_, _, err := st.InsertMessageIfNew(ctx, &model.Message{AccountID: account.ID, MessageID: "m1", ReceivedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, st.DeleteAccount(ctx, account.ID))

	_, total, err := st.QueryMessages(ctx, MessageFilter{AccountID: &account.ID}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

// Reapplying rules against a pre-existing message is idempotent.
func TestApplyRuleDecision_ReapplyIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := seedAccount(t, st)

	msg, _, err := st.InsertMessageIfNew(ctx, &model.Message{
		AccountID: account.ID, MessageID: "m1", Subject: "Alert: disk", ReceivedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, st.ApplyRuleDecision(ctx, msg.ID, []string{"P1"}, false))
	require.NoError(t, st.ApplyRuleDecision(ctx, msg.ID, []string{"P1"}, false))

	got, err := st.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"P1"}, got.Labels())
}
