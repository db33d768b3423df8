package model

import "time"

// PushTemplate selects one of four preset Telegram notification bodies.
type PushTemplate string

const (
	TemplateFullEmail PushTemplate = "full_email"
	TemplateFull      PushTemplate = "full"
	TemplateShort     PushTemplate = "short"
	TemplateTitleOnly PushTemplate = "title_only"
)

// Account is one administrator-owned IMAP mailbox under poll.
type Account struct {
	ID                   int64        `db:"id"`
	Email                string       `db:"email"`
	ProviderTag          string       `db:"provider_tag"`
	Host                 string       `db:"host"`
	Port                 int          `db:"port"`
	CredentialCiphertext []byte       `db:"credential_ciphertext"`
	IsActive             bool         `db:"is_active"`
	SortOrder            int          `db:"sort_order"`
	PollIntervalSeconds  *int         `db:"poll_interval_seconds"`
	TelegramPushEnabled  bool         `db:"telegram_push_enabled"`
	PushTemplate         PushTemplate `db:"push_template"`
	LastUIDWatermark     string       `db:"last_uid_watermark"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

// EffectiveInterval returns the account's poll interval, falling back to
// the process-wide default when the account does not override it.
func (a *Account) EffectiveInterval(globalDefault time.Duration) time.Duration {
	if a.PollIntervalSeconds == nil {
		return globalDefault
	}
	d := time.Duration(*a.PollIntervalSeconds) * time.Second
	if d < 5*time.Second {
		return 5 * time.Second
	}
	return d
}

// AccountPatch carries present/absent semantics for PATCH /accounts/{id}.
// A nil field means "leave unchanged"; PollIntervalSeconds is a
// double-pointer so that an explicit JSON null ("inherit global") can be
// told apart from an absent key ("no change").
type AccountPatch struct {
	Host                *string
	Port                *int
	Credential          *string // plaintext; not read by store.UpdateAccount, which takes a rotated credential as a separate ciphertext argument
	IsActive            *bool
	SortOrder           *int
	PollIntervalSeconds **int
	TelegramPushEnabled *bool
	PushTemplate        *PushTemplate
}
