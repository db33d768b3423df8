package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// InsertMessageIfNew is the at-most-once gate for downstream side
// effects: it atomically inserts a message keyed by (account_id,
// message_id), and on a unique-index collision returns the existing
// row with inserted=false instead of erroring.
func (s *Store) InsertMessageIfNew(ctx context.Context, msg *model.Message) (*model.Message, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("store: insert message: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := nowUTC()
	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages
			(account_id, message_id, subject, sender, body_text, body_html,
			 content_summary, received_at, is_read, labels, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		msg.AccountID, msg.MessageID, msg.Subject, msg.Sender, msg.BodyText,
		msg.BodyHTML, msg.ContentSummary, msg.ReceivedAt, msg.IsRead,
		msg.LabelsJSON, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("store: insert message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("store: insert message: %w", err)
	}

	if rowsAffected == 0 {
		// Already processed in a prior run; fetch the existing row so the
		// caller can decide whether to skip downstream side effects.
		var existing model.Message
		err := tx.GetContext(ctx, &existing, `
			SELECT * FROM messages WHERE account_id = ? AND message_id = ?
		`, msg.AccountID, msg.MessageID)
		if err != nil {
			return nil, false, fmt.Errorf("store: insert message: fetch existing: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("store: insert message: commit: %w", err)
		}
		return &existing, false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("store: insert message: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = now

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("store: insert message: commit: %w", err)
	}
	return msg, true, nil
}

// ApplyRuleDecision mutates a message's labels and read state in a
// single transaction. Labels are set (not merged) to the union the
// caller already computed, so repeated application (the reapply
// maintenance operation) is idempotent.
func (s *Store) ApplyRuleDecision(ctx context.Context, messageID int64, addLabels []string, markRead bool) error {
	msg := model.Message{}
	msg.SetLabels(addLabels)

	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET labels = ?, is_read = is_read OR ? WHERE id = ?`,
		msg.LabelsJSON, markRead, messageID,
	)
	if err != nil {
		return fmt.Errorf("store: apply rule decision: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: message %d: %w", messageID, model.ErrNotFound)
	}
	return nil
}

// ReplaceLabels overwrites a message's label set outright. The reapply
// operation does not call it; it writes through ApplyRuleDecision.
func (s *Store) ReplaceLabels(ctx context.Context, messageID int64, labels []string) error {
	msg := model.Message{}
	msg.SetLabels(labels)
	_, err := s.db.ExecContext(ctx, `UPDATE messages SET labels = ? WHERE id = ?`, msg.LabelsJSON, messageID)
	if err != nil {
		return fmt.Errorf("store: replace labels: %w", err)
	}
	return nil
}

// MarkRead sets the local is_read flag for a user- or rule-initiated
// mark-read action.
func (s *Store) MarkRead(ctx context.Context, messageID int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET is_read = true WHERE id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("store: mark read: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: message %d: %w", messageID, model.ErrNotFound)
	}
	return nil
}

// GetMessage returns one message by ID.
func (s *Store) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	var m model.Message
	err := s.db.GetContext(ctx, &m, `SELECT * FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: message %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get message: %w", err)
	}
	return &m, nil
}

// MessageFilter is the set of optional constraints query_messages
// accepts.
type MessageFilter struct {
	AccountID    *int64
	Keyword      string // substring match over subject/sender/summary
	IsRead       *bool
	Label        string
	ReceivedFrom *time.Time
	ReceivedTo   *time.Time
}

// QueryMessages supports the /emails/ listing filters with stable
// secondary sort by received_at DESC, id DESC.
func (s *Store) QueryMessages(ctx context.Context, filter MessageFilter, page, pageSize int) ([]*model.Message, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where := `WHERE 1=1`
	args := []any{}

	if filter.AccountID != nil {
		where += ` AND account_id = ?`
		args = append(args, *filter.AccountID)
	}
	if filter.Keyword != "" {
		where += ` AND (subject LIKE ? OR sender LIKE ? OR content_summary LIKE ?)`
		kw := "%" + filter.Keyword + "%"
		args = append(args, kw, kw, kw)
	}
	if filter.IsRead != nil {
		where += ` AND is_read = ?`
		args = append(args, *filter.IsRead)
	}
	if filter.Label != "" {
		where += ` AND labels LIKE ?`
		args = append(args, `%"`+filter.Label+`"%`)
	}
	if filter.ReceivedFrom != nil {
		where += ` AND received_at >= ?`
		args = append(args, *filter.ReceivedFrom)
	}
	if filter.ReceivedTo != nil {
		where += ` AND received_at <= ?`
		args = append(args, *filter.ReceivedTo)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM messages ` + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("store: query messages: count: %w", err)
	}

	query := `SELECT * FROM messages ` + where + ` ORDER BY received_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	var messages []*model.Message
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("store: query messages: %w", err)
	}
	return messages, total, nil
}

// ListMessagesInScope returns every message a rule set change needs to
// re-evaluate: all messages belonging to accountID, or every message
// when accountID is nil (used by POST /emails/apply-rules).
func (s *Store) ListMessagesInScope(ctx context.Context, accountID *int64) ([]*model.Message, error) {
	query := `SELECT * FROM messages`
	args := []any{}
	if accountID != nil {
		query += ` WHERE account_id = ?`
		args = append(args, *accountID)
	}
	query += ` ORDER BY id ASC`

	var messages []*model.Message
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("store: list messages in scope: %w", err)
	}
	return messages, nil
}
