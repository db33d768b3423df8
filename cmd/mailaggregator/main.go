package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailaggregator/mailaggregator/internal/auth"
	"github.com/mailaggregator/mailaggregator/internal/cipher"
	"github.com/mailaggregator/mailaggregator/internal/config"
	"github.com/mailaggregator/mailaggregator/internal/delivery"
	"github.com/mailaggregator/mailaggregator/internal/fetcher"
	"github.com/mailaggregator/mailaggregator/internal/httpapi"
	"github.com/mailaggregator/mailaggregator/internal/imapclient"
	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/pollstatus"
	"github.com/mailaggregator/mailaggregator/internal/rules"
	"github.com/mailaggregator/mailaggregator/internal/scheduler"
	"github.com/mailaggregator/mailaggregator/internal/store"
	"github.com/mailaggregator/mailaggregator/internal/supervisor"
)

var rootCmd = &cobra.Command{
	Use:   "mailaggregator",
	Short: "MailAggregator - self-hosted IMAP polling, classification and push fan-out",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot the HTTP control plane and the per-account poll scheduler",
	RunE:  runServe,
}

var applyRulesCmd = &cobra.Command{
	Use:   "apply-rules",
	Short: "Re-evaluate the current rule set against every persisted message",
	Long: `Invokes the reapply maintenance operation directly, bypassing the
HTTP API.`,
	RunE: runApplyRules,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or replace process settings and accounts",
}

var settingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the settings/accounts export document as JSON",
	RunE:  runSettingsExport,
}

var settingsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace settings/accounts from an export document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsImport,
}

func init() {
	settingsCmd.AddCommand(settingsExportCmd, settingsImportCmd)
	rootCmd.AddCommand(serveCmd, applyRulesCmd, settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// bootstrap wires every long-lived collaborator from configuration. It
// is shared by `serve` and `apply-rules` so both see the same store and
// cipher.
type bootstrap struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	cipher *cipher.Cipher
}

func newBootstrap() (*bootstrap, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	c, err := cipher.New([]byte(cfg.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("build cipher: %w", err)
	}

	return &bootstrap{cfg: cfg, logger: logger, store: st, cipher: c}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.store.Close()
	ctx := context.Background()

	if err := seedAdmin(ctx, b); err != nil {
		return err
	}

	queue := delivery.NewQueue(b.store, b.logger, b.cfg.PushHTTPTimeout, 4)
	psRecorder := pollstatus.NewRecorder(b.store)

	opts := imapclient.Options{
		DialTimeout:    b.cfg.IMAPDialTimeout,
		CommandTimeout: b.cfg.IMAPCommandTimeout,
	}
	f := fetcher.New(b.store, b.cipher, queue, psRecorder, b.logger, opts)
	sched := scheduler.New(b.store, f, b.logger)

	tokens := auth.NewTokenManager(b.cfg.JWTSecret, 24*time.Hour)
	server := httpapi.New(b.store, b.cipher, sched, psRecorder, tokens, b.logger, b.cfg.AdminUsername, b.cfg.AdminResetToken)

	httpServer := &http.Server{
		Addr:    b.cfg.HTTPAddr,
		Handler: server.Router(),
	}

	sv := supervisor.New(b.logger, 10*time.Second)
	sv.AddDeliveryQueue(queue.Start, queue.Stop)
	sv.AddScheduler(sched.Start, sched.Stop)
	sv.AddHTTPServer(httpServer)

	if err := sv.Start(ctx); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}
	b.logger.Info("mailaggregator serving", "addr", b.cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	b.logger.Info("received shutdown signal", "signal", sig.String())

	sv.Stop()
	b.logger.Info("mailaggregator stopped")
	return nil
}

func seedAdmin(ctx context.Context, b *bootstrap) error {
	if b.cfg.AdminUsername == "" || b.cfg.AdminPassword == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(b.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	return b.store.SeedAdminCredentials(ctx, b.cfg.AdminUsername, string(hash))
}

func runApplyRules(cmd *cobra.Command, args []string) error {
	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.store.Close()
	ctx := context.Background()

	messages, err := b.store.ListMessagesInScope(ctx, nil)
	if err != nil {
		return err
	}

	ruleCache := map[int64][]*model.Rule{}
	accountCache := map[int64]*model.Account{}
	updated := 0

	for _, m := range messages {
		accountRules, ok := ruleCache[m.AccountID]
		if !ok {
			accountRules, err = b.store.ListRules(ctx, m.AccountID)
			if err != nil {
				return err
			}
			ruleCache[m.AccountID] = accountRules
		}
		account, ok := accountCache[m.AccountID]
		if !ok {
			account, err = b.store.GetAccount(ctx, m.AccountID)
			if err != nil {
				return err
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
		if err := b.store.ApplyRuleDecision(ctx, m.ID, decision.AddLabels, decision.MarkRead); err != nil {
			return err
		}
		if !slices.Equal(before, decision.AddLabels) {
			updated++
		}
	}

	fmt.Printf("updated %d of %d messages\n", updated, len(messages))
	return nil
}

type exportDocument struct {
	Settings *model.Settings  `json:"settings"`
	Accounts []*model.Account `json:"accounts"`
}

func runSettingsExport(cmd *cobra.Command, args []string) error {
	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.store.Close()
	ctx := context.Background()

	settings, err := b.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	accounts, err := b.store.ListAccounts(ctx, false)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(exportDocument{Settings: settings, Accounts: accounts})
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.store.Close()
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse export document: %w", err)
	}
	if doc.Settings == nil {
		return fmt.Errorf("export document missing settings")
	}

	if _, err := b.store.PatchSettings(ctx, model.SettingsPatch{
		TelegramBotToken:        &doc.Settings.TelegramBotToken,
		TelegramChatID:          &doc.Settings.TelegramChatID,
		PollIntervalSeconds:     &doc.Settings.PollIntervalSeconds,
		WebhookURL:              &doc.Settings.WebhookURL,
		APIToken:                &doc.Settings.APIToken,
		RetentionKeepDays:       &doc.Settings.RetentionKeepDays,
		RetentionKeepPerAccount: &doc.Settings.RetentionKeepPerAccount,
		MirrorMarkReadToIMAP:    &doc.Settings.MirrorMarkReadToIMAP,
	}); err != nil {
		return err
	}

	existing, err := b.store.ListAccounts(ctx, false)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if err := b.store.DeleteAccount(ctx, a.ID); err != nil {
			return err
		}
	}
	for _, a := range doc.Accounts {
		imported := *a
		imported.ID = 0
		if err := b.store.CreateAccount(ctx, &imported); err != nil {
			return err
		}
	}

	fmt.Printf("imported %d accounts\n", len(doc.Accounts))
	return nil
}
