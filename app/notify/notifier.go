package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/source"
	"github.com/feedgram/feedgram/app/telegram"
)

// Result reports the outcome of a dispatch attempt. An unconfigured
// account is not an error: Success is false and Reason explains why, so
// the item stays unnotified for a later attempt.
type Result struct {
	Success bool
	Reason  string
}

type Notifier struct {
	tg          *telegram.Client
	accountRepo database.AccountConfigRepository
}

func NewNotifier(tg *telegram.Client, accountRepo database.AccountConfigRepository) *Notifier {
	return &Notifier{tg: tg, accountRepo: accountRepo}
}

// Notify sends one new-item message through the owning account's bot.
// Delivery is a single best-effort attempt; failures are surfaced in the
// result and logged, never raised.
func (n *Notifier) Notify(ctx context.Context, ownerID string, item database.Item, kind source.Kind) Result {
	cfg, err := n.accountRepo.GetConfig(ownerID)
	if err != nil {
		slog.Error("Failed to load account config", "owner", ownerID, "error", err)
		return Result{Reason: fmt.Sprintf("failed to load account config: %v", err)}
	}
	if cfg == nil || cfg.BotToken == "" || cfg.ChatID == "" {
		return Result{Reason: "no messaging config for account"}
	}

	if err := n.tg.SendMessage(ctx, cfg.BotToken, cfg.ChatID, FormatItem(item, kind), true); err != nil {
		slog.Warn("Notification dispatch failed", "owner", ownerID, "item", item.ID, "error", err)
		return Result{Reason: err.Error()}
	}

	return Result{Success: true}
}

// FormatItem renders the notification message body. The title is
// HTML-escaped so feed-controlled text cannot inject markup into
// Telegram's rich-text rendering.
func FormatItem(item database.Item, kind source.Kind) string {
	prefix := "🎬 New video"
	if kind == source.KindReddit {
		prefix = "📝 New post"
	}
	return fmt.Sprintf("%s: <b>%s</b>\n%s", prefix, html.EscapeString(item.Title), item.Link)
}
