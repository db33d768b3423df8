package store

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    provider_tag TEXT NOT NULL DEFAULT '',
    host TEXT NOT NULL,
    port INTEGER NOT NULL,
    credential_ciphertext BLOB NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT true,
    sort_order INTEGER NOT NULL DEFAULT 0,
    poll_interval_seconds INTEGER,
    telegram_push_enabled BOOLEAN NOT NULL DEFAULT true,
    push_template TEXT NOT NULL DEFAULT 'short',
    last_uid_watermark TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    message_id TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    sender TEXT NOT NULL DEFAULT '',
    body_text TEXT NOT NULL DEFAULT '',
    body_html TEXT NOT NULL DEFAULT '',
    content_summary TEXT NOT NULL DEFAULT '',
    received_at DATETIME NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT false,
    labels TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(account_id, message_id)
);

CREATE TABLE IF NOT EXISTS rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    rule_order INTEGER NOT NULL DEFAULT 0,
    account_id INTEGER REFERENCES accounts(id) ON DELETE CASCADE,
    sender_pattern TEXT NOT NULL DEFAULT '',
    subject_pattern TEXT NOT NULL DEFAULT '',
    body_pattern TEXT NOT NULL DEFAULT '',
    add_labels TEXT NOT NULL DEFAULT '[]',
    push_telegram BOOLEAN NOT NULL DEFAULT false,
    mark_read BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS push_filters (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    field TEXT NOT NULL,
    mode TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    rule_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    telegram_bot_token TEXT NOT NULL DEFAULT '',
    telegram_chat_id TEXT NOT NULL DEFAULT '',
    poll_interval_seconds INTEGER NOT NULL DEFAULT 300,
    webhook_url TEXT NOT NULL DEFAULT '',
    api_token TEXT NOT NULL DEFAULT '',
    retention_keep_days INTEGER NOT NULL DEFAULT 90,
    retention_keep_per_account INTEGER NOT NULL DEFAULT 0,
    mirror_mark_read_to_imap BOOLEAN NOT NULL DEFAULT true
);

INSERT OR IGNORE INTO settings (id) VALUES (1);

CREATE TABLE IF NOT EXISTS poll_status (
    account_id INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
    last_started_at DATETIME,
    last_finished_at DATETIME,
    last_success_at DATETIME,
    last_error TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS admin_credentials (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_account ON messages(account_id);
CREATE INDEX IF NOT EXISTS idx_messages_received_at ON messages(received_at);
CREATE INDEX IF NOT EXISTS idx_rules_account ON rules(account_id);
CREATE INDEX IF NOT EXISTS idx_push_filters_account ON push_filters(account_id);
`
