package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/store"
)

func messageFilterSince(since time.Time) store.MessageFilter {
	return store.MessageFilter{ReceivedFrom: &since}
}

func messageFilterSinceUnread(since time.Time, isRead *bool) store.MessageFilter {
	return store.MessageFilter{ReceivedFrom: &since, IsRead: isRead}
}

type statsOverviewResponse struct {
	Days           int `json:"days"`
	TotalMessages  int `json:"total_messages"`
	UnreadMessages int `json:"unread_messages"`
	ActiveAccounts int `json:"active_accounts"`
}

// handleStatsOverview reports counts within the trailing N days; it is
// a read-only projection over the store, distinct from the
// retention/archival batch job.
func (s *Server) handleStatsOverview(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	ctx := c.Request.Context()
	_, totalInWindow, err := s.store.QueryMessages(ctx, messageFilterSince(since), 1, 1)
	if err != nil {
		respondError(c, err)
		return
	}
	unreadFalse := false
	_, unreadInWindow, err := s.store.QueryMessages(ctx, messageFilterSinceUnread(since, &unreadFalse), 1, 1)
	if err != nil {
		respondError(c, err)
		return
	}
	accounts, err := s.store.ListAccounts(ctx, true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, statsOverviewResponse{
		Days:           days,
		TotalMessages:  totalInWindow,
		UnreadMessages: unreadInWindow,
		ActiveAccounts: len(accounts),
	})
}

// handleStatsCleanup, handleStatsArchive and handleStatsArchiveGet cover
// the retention/archival batch job, an out-of-scope external
// collaborator: the routes exist so the API surface is complete, but
// the batch pruning logic itself is not part of this repository.
func (s *Server) handleStatsCleanup(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "retention cleanup is an external maintenance job, not implemented here"})
}

func (s *Server) handleStatsArchive(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "archival is an external maintenance job, not implemented here"})
}

func (s *Server) handleStatsArchiveGet(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "archival is an external maintenance job, not implemented here"})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	statuses, err := s.pollStatus.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	var lastStarted, lastFinished *time.Time
	for _, st := range statuses {
		if st.LastStartedAt != nil && (lastStarted == nil || st.LastStartedAt.After(*lastStarted)) {
			lastStarted = st.LastStartedAt
		}
		if st.LastFinishedAt != nil && (lastFinished == nil || st.LastFinishedAt.After(*lastFinished)) {
			lastFinished = st.LastFinishedAt
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"poller": gin.H{
			"last_started_at":  lastStarted,
			"last_finished_at": lastFinished,
		},
	})
}
