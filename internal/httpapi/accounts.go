package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/imapclient"
	"github.com/mailaggregator/mailaggregator/internal/model"
)

// accountView is the wire representation of an Account: the ciphertext
// never leaves this process.
type accountView struct {
	ID                  int64              `json:"id"`
	Email               string             `json:"email"`
	ProviderTag         string             `json:"provider_tag"`
	Host                string             `json:"host"`
	Port                int                `json:"port"`
	IsActive            bool               `json:"is_active"`
	SortOrder           int                `json:"sort_order"`
	PollIntervalSeconds *int               `json:"poll_interval_seconds"`
	TelegramPushEnabled bool               `json:"telegram_push_enabled"`
	PushTemplate        model.PushTemplate `json:"push_template"`
}

func toAccountView(a *model.Account) accountView {
	return accountView{
		ID:                  a.ID,
		Email:               a.Email,
		ProviderTag:         a.ProviderTag,
		Host:                a.Host,
		Port:                a.Port,
		IsActive:            a.IsActive,
		SortOrder:           a.SortOrder,
		PollIntervalSeconds: a.PollIntervalSeconds,
		TelegramPushEnabled: a.TelegramPushEnabled,
		PushTemplate:        a.PushTemplate,
	}
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleListAccounts(c *gin.Context) {
	accounts, err := s.store.ListAccounts(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, toAccountView(a))
	}
	c.JSON(http.StatusOK, views)
}

type createAccountRequest struct {
	Email               string             `json:"email" binding:"required"`
	Host                string             `json:"host"`
	Port                int                `json:"port"`
	Password            string             `json:"password" binding:"required"`
	TelegramPushEnabled *bool              `json:"telegram_push_enabled"`
	PushTemplate        model.PushTemplate `json:"push_template"`
	PollIntervalSeconds *int               `json:"poll_interval_seconds"`
}

// handleCreateAccount validates and persists a new account. When Host is
// omitted it falls back to ResolveServer's best-effort guess (never
// authoritative, per internal/imapclient/resolver.go's own doc comment);
// the caller should still confirm the resolved host/port if precision
// matters.
func (s *Server) handleCreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.PollIntervalSeconds != nil && *req.PollIntervalSeconds < 5 {
		badRequest(c, "poll_interval_seconds must be >= 5")
		return
	}

	host, port := req.Host, req.Port
	if host == "" {
		resolvedHost, resolvedPort, err := imapclient.ResolveServer(req.Email)
		if err != nil {
			badRequest(c, "host not supplied and could not be resolved: "+err.Error())
			return
		}
		host, port = resolvedHost, resolvedPort
	}
	if port == 0 {
		port = 993
	}

	ciphertext, err := s.cipher.Encrypt([]byte(req.Password))
	if err != nil {
		respondError(c, err)
		return
	}

	pushTemplate := req.PushTemplate
	if pushTemplate == "" {
		pushTemplate = model.TemplateShort
	}
	telegramEnabled := true
	if req.TelegramPushEnabled != nil {
		telegramEnabled = *req.TelegramPushEnabled
	}

	account := &model.Account{
		Email:                req.Email,
		Host:                 host,
		Port:                 port,
		CredentialCiphertext: ciphertext,
		IsActive:             true,
		PollIntervalSeconds:  req.PollIntervalSeconds,
		TelegramPushEnabled:  telegramEnabled,
		PushTemplate:         pushTemplate,
	}
	if err := s.store.CreateAccount(c.Request.Context(), account); err != nil {
		respondError(c, err)
		return
	}

	s.scheduler.OnAccountActivated(c.Request.Context(), account)
	c.JSON(http.StatusCreated, toAccountView(account))
}

type updateAccountRequest struct {
	Host                *string             `json:"host"`
	Port                *int                `json:"port"`
	Password            *string             `json:"password"`
	IsActive            *bool               `json:"is_active"`
	SortOrder           *int                `json:"sort_order"`
	PollIntervalSeconds **int               `json:"poll_interval_seconds"`
	TelegramPushEnabled *bool               `json:"telegram_push_enabled"`
	PushTemplate        *model.PushTemplate `json:"push_template"`
}

func (s *Server) handleUpdateAccount(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.PollIntervalSeconds != nil && *req.PollIntervalSeconds != nil && **req.PollIntervalSeconds < 5 {
		badRequest(c, "poll_interval_seconds must be >= 5")
		return
	}

	var ciphertext []byte
	if req.Password != nil {
		var err error
		ciphertext, err = s.cipher.Encrypt([]byte(*req.Password))
		if err != nil {
			respondError(c, err)
			return
		}
	}

	patch := model.AccountPatch{
		Host:                req.Host,
		Port:                req.Port,
		IsActive:            req.IsActive,
		SortOrder:           req.SortOrder,
		PollIntervalSeconds: req.PollIntervalSeconds,
		TelegramPushEnabled: req.TelegramPushEnabled,
		PushTemplate:        req.PushTemplate,
	}
	ctx := c.Request.Context()
	if err := s.store.UpdateAccount(ctx, id, patch, ciphertext); err != nil {
		respondError(c, err)
		return
	}

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	switch {
	case req.IsActive != nil && !*req.IsActive:
		s.scheduler.OnAccountDeactivated(id)
	case req.IsActive != nil && *req.IsActive:
		s.scheduler.OnAccountActivated(ctx, account)
	case req.PollIntervalSeconds != nil:
		s.scheduler.OnAccountIntervalChanged(ctx, account)
	}

	c.JSON(http.StatusOK, toAccountView(account))
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := s.store.DeleteAccount(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	s.scheduler.OnAccountDeactivated(id)
	c.Status(http.StatusNoContent)
}

type accountStatusView struct {
	Account    accountView       `json:"account"`
	PollStatus *model.PollStatus `json:"poll_status"`
}

func (s *Server) handleAccountsStatus(c *gin.Context) {
	ctx := c.Request.Context()
	accounts, err := s.store.ListAccounts(ctx, false)
	if err != nil {
		respondError(c, err)
		return
	}
	statuses, err := s.pollStatus.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	byAccount := make(map[int64]*model.PollStatus, len(statuses))
	for _, st := range statuses {
		byAccount[st.AccountID] = st
	}

	views := make([]accountStatusView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountStatusView{
			Account:    toAccountView(a),
			PollStatus: byAccount[a.ID],
		})
	}
	c.JSON(http.StatusOK, views)
}
