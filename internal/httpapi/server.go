// Package httpapi is the thin HTTP/JSON control plane: a gin router
// over the core components, validating input and mapping component
// error kinds to status codes. It owns no business logic of its own.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/auth"
	"github.com/mailaggregator/mailaggregator/internal/cipher"
	"github.com/mailaggregator/mailaggregator/internal/httpapi/middleware"
	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

// scheduler is the subset of *scheduler.Scheduler the API needs to react
// to account mutations and on-demand fetches.
type scheduler interface {
	OnAccountActivated(ctx context.Context, account *model.Account)
	OnAccountDeactivated(accountID int64)
	OnAccountIntervalChanged(ctx context.Context, account *model.Account)
	OnGlobalIntervalChanged(ctx context.Context, newDefault time.Duration)
	RunNow(ctx context.Context, accountID int64) error
}

// pollStatus is the subset of *pollstatus.Recorder the API surfaces
// read-only.
type pollStatus interface {
	Get(ctx context.Context, accountID int64) (*model.PollStatus, error)
	List(ctx context.Context) ([]*model.PollStatus, error)
}

// Server bundles the collaborators every handler needs.
type Server struct {
	store      *store.Store
	cipher     *cipher.Cipher
	scheduler  scheduler
	pollStatus pollStatus
	tokens     *auth.TokenManager
	logger     *slog.Logger

	adminResetToken string
	bootAdminUser   string
}

// New builds a Server. bootAdminUser/adminResetToken are the two
// env-sourced values /auth needs beyond what is in the settings table.
func New(
	st *store.Store,
	c *cipher.Cipher,
	sched scheduler,
	ps pollStatus,
	tokens *auth.TokenManager,
	logger *slog.Logger,
	bootAdminUser, adminResetToken string,
) *Server {
	return &Server{
		store:           st,
		cipher:          c,
		scheduler:       sched,
		pollStatus:      ps,
		tokens:          tokens,
		logger:          logger,
		adminResetToken: adminResetToken,
		bootAdminUser:   bootAdminUser,
	}
}

// Router builds the gin engine with every control-plane route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/auth/config", s.handleAuthConfig)
	r.POST("/api/auth/login", s.handleLogin)
	// reset-password is its own break-glass gate (ADMIN_RESET_TOKEN), not
	// the bearer/session check the rest of the mutating API requires.
	r.POST("/api/auth/reset-password", s.handleResetPassword)

	authed := r.Group("/api")
	authed.Use(middleware.RequireAuth(s.tokens, s.currentAPIToken))
	{
		authed.POST("/auth/change-password", s.handleChangePassword)

		authed.GET("/accounts/", s.handleListAccounts)
		authed.POST("/accounts/", s.handleCreateAccount)
		authed.GET("/accounts/status", s.handleAccountsStatus)
		authed.PATCH("/accounts/:id", s.handleUpdateAccount)
		authed.DELETE("/accounts/:id", s.handleDeleteAccount)

		authed.POST("/accounts/:id/telegram-rules", s.handleCreatePushFilter)
		authed.GET("/accounts/:id/telegram-rules", s.handleListPushFilters)
		authed.DELETE("/accounts/telegram-rules/:id", s.handleDeletePushFilter)

		authed.GET("/rules/", s.handleListRules)
		authed.POST("/rules/", s.handleCreateRule)
		authed.PATCH("/rules/:id", s.handleUpdateRule)
		authed.DELETE("/rules/:id", s.handleDeleteRule)

		authed.GET("/emails/", s.handleListEmails)
		authed.GET("/emails/:id", s.handleGetEmail)
		authed.POST("/emails/:id/read", s.handleMarkEmailRead)
		authed.POST("/emails/apply-rules", s.handleApplyRules)
		authed.POST("/emails/accounts/:id/fetch_once", s.handleFetchOnce)

		authed.GET("/settings", s.handleGetSettings)
		authed.PATCH("/settings", s.handlePatchSettings)
		authed.GET("/settings/export", s.handleExportSettings)
		authed.POST("/settings/import", s.handleImportSettings)

		authed.GET("/stats/overview", s.handleStatsOverview)
		authed.POST("/stats/cleanup", s.handleStatsCleanup)
		authed.POST("/stats/archive", s.handleStatsArchive)
		authed.GET("/stats/archive/:name", s.handleStatsArchiveGet)
	}

	return r
}

func (s *Server) currentAPIToken() string {
	settings, err := s.store.GetSettings(context.Background())
	if err != nil {
		return ""
	}
	return settings.APIToken
}

// rulesForAccount loads the candidate rule set the way the Fetcher does,
// used by both the apply-rules maintenance operation and any direct
// re-evaluation call.
func rulesForAccount(ctx context.Context, st *store.Store, accountID int64) ([]*model.Rule, error) {
	return st.ListRules(ctx, accountID)
}
