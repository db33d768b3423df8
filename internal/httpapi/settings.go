package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// settingsView omits api_token and telegram_bot_token from the read path
// the same way account credentials are never surfaced — both are
// write-only secrets from the caller's perspective.
type settingsView struct {
	TelegramChatID          string `json:"telegram_chat_id"`
	PollIntervalSeconds     int    `json:"poll_interval_seconds"`
	WebhookURL              string `json:"webhook_url"`
	RetentionKeepDays       int    `json:"retention_keep_days"`
	RetentionKeepPerAccount int    `json:"retention_keep_per_account"`
	MirrorMarkReadToIMAP    bool   `json:"mirror_mark_read_to_imap"`
	TelegramBotTokenSet     bool   `json:"telegram_bot_token_set"`
	APITokenSet             bool   `json:"api_token_set"`
}

func toSettingsView(s *model.Settings) settingsView {
	return settingsView{
		TelegramChatID:          s.TelegramChatID,
		PollIntervalSeconds:     s.PollIntervalSeconds,
		WebhookURL:              s.WebhookURL,
		RetentionKeepDays:       s.RetentionKeepDays,
		RetentionKeepPerAccount: s.RetentionKeepPerAccount,
		MirrorMarkReadToIMAP:    s.MirrorMarkReadToIMAP,
		TelegramBotTokenSet:     s.TelegramBotToken != "",
		APITokenSet:             s.APIToken != "",
	}
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.store.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsView(settings))
}

type patchSettingsRequest struct {
	TelegramBotToken        *string `json:"telegram_bot_token"`
	TelegramChatID          *string `json:"telegram_chat_id"`
	PollIntervalSeconds     *int    `json:"poll_interval_seconds"`
	WebhookURL              *string `json:"webhook_url"`
	APIToken                *string `json:"api_token"`
	RetentionKeepDays       *int    `json:"retention_keep_days"`
	RetentionKeepPerAccount *int    `json:"retention_keep_per_account"`
	MirrorMarkReadToIMAP    *bool   `json:"mirror_mark_read_to_imap"`
}

func (s *Server) handlePatchSettings(c *gin.Context) {
	var req patchSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.PollIntervalSeconds != nil && *req.PollIntervalSeconds < 5 {
		badRequest(c, "poll_interval_seconds must be >= 5")
		return
	}

	ctx := c.Request.Context()
	settings, err := s.store.PatchSettings(ctx, model.SettingsPatch{
		TelegramBotToken:        req.TelegramBotToken,
		TelegramChatID:          req.TelegramChatID,
		PollIntervalSeconds:     req.PollIntervalSeconds,
		WebhookURL:              req.WebhookURL,
		APIToken:                req.APIToken,
		RetentionKeepDays:       req.RetentionKeepDays,
		RetentionKeepPerAccount: req.RetentionKeepPerAccount,
		MirrorMarkReadToIMAP:    req.MirrorMarkReadToIMAP,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if req.PollIntervalSeconds != nil {
		s.scheduler.OnGlobalIntervalChanged(ctx, time.Duration(settings.PollIntervalSeconds)*time.Second)
	}

	c.JSON(http.StatusOK, toSettingsView(settings))
}

// exportDocument is the export/import wire format: settings plus every
// account, credentials left ciphered. Round-tripping this through the
// same ENCRYPTION_KEY reproduces bit-identical ciphertexts.
type exportDocument struct {
	Settings *model.Settings  `json:"settings"`
	Accounts []*model.Account `json:"accounts"`
}

func (s *Server) handleExportSettings(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	accounts, err := s.store.ListAccounts(ctx, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exportDocument{Settings: settings, Accounts: accounts})
}

func (s *Server) handleImportSettings(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var doc exportDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		badRequest(c, "invalid export document: "+err.Error())
		return
	}
	if doc.Settings == nil {
		badRequest(c, "missing settings")
		return
	}

	ctx := c.Request.Context()
	if _, err := s.store.PatchSettings(ctx, model.SettingsPatch{
		TelegramBotToken:        &doc.Settings.TelegramBotToken,
		TelegramChatID:          &doc.Settings.TelegramChatID,
		PollIntervalSeconds:     &doc.Settings.PollIntervalSeconds,
		WebhookURL:              &doc.Settings.WebhookURL,
		APIToken:                &doc.Settings.APIToken,
		RetentionKeepDays:       &doc.Settings.RetentionKeepDays,
		RetentionKeepPerAccount: &doc.Settings.RetentionKeepPerAccount,
		MirrorMarkReadToIMAP:    &doc.Settings.MirrorMarkReadToIMAP,
	}); err != nil {
		respondError(c, err)
		return
	}

	existing, err := s.store.ListAccounts(ctx, false)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, a := range existing {
		if err := s.store.DeleteAccount(ctx, a.ID); err != nil {
			respondError(c, err)
			return
		}
		s.scheduler.OnAccountDeactivated(a.ID)
	}

	for _, a := range doc.Accounts {
		imported := *a
		imported.ID = 0
		if err := s.store.CreateAccount(ctx, &imported); err != nil {
			respondError(c, err)
			return
		}
		if imported.IsActive {
			s.scheduler.OnAccountActivated(ctx, &imported)
		}
	}

	c.Status(http.StatusNoContent)
}
