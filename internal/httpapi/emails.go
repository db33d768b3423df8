package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/rules"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

type emailView struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	MessageID      string    `json:"message_id"`
	Subject        string    `json:"subject"`
	Sender         string    `json:"sender"`
	ContentSummary string    `json:"content_summary"`
	ReceivedAt     time.Time `json:"received_at"`
	IsRead         bool      `json:"is_read"`
	Labels         []string  `json:"labels"`
}

func toEmailView(m *model.Message) emailView {
	return emailView{
		ID:             m.ID,
		AccountID:      m.AccountID,
		MessageID:      m.MessageID,
		Subject:        m.Subject,
		Sender:         m.Sender,
		ContentSummary: m.ContentSummary,
		ReceivedAt:     m.ReceivedAt,
		IsRead:         m.IsRead,
		Labels:         m.Labels(),
	}
}

type emailListResponse struct {
	Items    []emailView `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func (s *Server) handleListEmails(c *gin.Context) {
	var filter store.MessageFilter

	if v := c.Query("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid account_id")
			return
		}
		filter.AccountID = &id
	}
	filter.Keyword = c.Query("keyword")
	filter.Label = c.Query("label")
	if v := c.Query("is_read"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "invalid is_read")
			return
		}
		filter.IsRead = &b
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "invalid date_from")
			return
		}
		filter.ReceivedFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "invalid date_to")
			return
		}
		filter.ReceivedTo = &t
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	messages, total, err := s.store.QueryMessages(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]emailView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toEmailView(m))
	}
	c.JSON(http.StatusOK, emailListResponse{Items: views, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) handleGetEmail(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	m, err := s.store.GetMessage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEmailView(m))
}

func (s *Server) handleMarkEmailRead(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := s.store.MarkRead(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleFetchOnce(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := s.scheduler.RunNow(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type applyRulesResponse struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// handleApplyRules is the maintenance "reapply" operation: every
// already-persisted message in scope is re-evaluated against the
// current rule set and its labels are rewritten; a matching mark_read
// rule marks it read, and read state is never cleared. An
// optional account_id query parameter scopes the reapply to one
// account; omitted, it runs over every message.
func (s *Server) handleApplyRules(c *gin.Context) {
	ctx := c.Request.Context()

	var accountID *int64
	if v := c.Query("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid account_id")
			return
		}
		accountID = &id
	}

	messages, err := s.store.ListMessagesInScope(ctx, accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	ruleCache := map[int64][]*model.Rule{}
	accountCache := map[int64]*model.Account{}
	updated := 0

	for _, m := range messages {
		accountRules, ok := ruleCache[m.AccountID]
		if !ok {
			accountRules, err = rulesForAccount(ctx, s.store, m.AccountID)
			if err != nil {
				respondError(c, err)
				return
			}
			ruleCache[m.AccountID] = accountRules
		}

		account, ok := accountCache[m.AccountID]
		if !ok {
			account, err = s.store.GetAccount(ctx, m.AccountID)
			if err != nil {
				respondError(c, err)
				return
			}
			accountCache[m.AccountID] = account
		}

		decision := rules.Evaluate(rules.Input{
			AccountID: m.AccountID,
			Sender:    m.Sender,
			Subject:   m.Subject,
			Body:      m.BodyText,
		}, account.TelegramPushEnabled, accountRules)

		before := m.Labels()
		if err := s.store.ApplyRuleDecision(ctx, m.ID, decision.AddLabels, decision.MarkRead); err != nil {
			respondError(c, err)
			return
		}
		if !stringSlicesEqual(before, decision.AddLabels) {
			updated++
		}
	}

	c.JSON(http.StatusOK, applyRulesResponse{Updated: updated, Total: len(messages)})
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
