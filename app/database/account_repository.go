package database

import (
	"database/sql"
	"fmt"
)

// AccountConfigRepo handles database operations for account messaging configs
type AccountConfigRepo struct {
	db *DB
}

var _ AccountConfigRepository = (*AccountConfigRepo)(nil)

func NewAccountConfigRepository(db *DB) *AccountConfigRepo {
	return &AccountConfigRepo{db: db}
}

func (r *AccountConfigRepo) GetConfig(ownerID string) (*AccountConfig, error) {
	var cfg AccountConfig
	err := r.db.QueryRow(`
		SELECT owner_id, bot_token, chat_id, llm_api_key
		FROM account_configs
		WHERE owner_id = ?
	`, ownerID).Scan(&cfg.OwnerID, &cfg.BotToken, &cfg.ChatID, &cfg.LLMAPIKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account config: %w", err)
	}
	return &cfg, nil
}

// UpsertChatID links a Telegram chat to an account, creating the config row
// when the account has none yet. Idempotent: re-linking the same chat is a
// no-op overwrite.
func (r *AccountConfigRepo) UpsertChatID(ownerID, chatID string) error {
	_, err := r.db.Exec(`
		INSERT INTO account_configs (owner_id, chat_id)
		VALUES (?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET chat_id = excluded.chat_id
	`, ownerID, chatID)
	if err != nil {
		return fmt.Errorf("failed to upsert chat id: %w", err)
	}
	return nil
}
