package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/ingest"
	"github.com/feedgram/feedgram/app/llm"
	"github.com/feedgram/feedgram/app/telegram"
)

const (
	notInContentReply = "The content does not contain an answer to this question."
	rateLimitReply    = "The assistant is rate limited right now. Please try again in a minute."
	genericErrorReply = "Something went wrong while preparing an answer. Please try again."
	noLLMConfigReply  = "No assistant API key is configured for this account."
	unresolvedReply   = "Could not match this reply to a known item. Reply directly to a notification message containing the item link."
	welcomeReply      = "You are all set. New items will be delivered to this chat."
)

// itemLinkRe recognizes links to items the pipeline may have ingested:
// YouTube watch links in both long and short form, and Reddit post links.
var itemLinkRe = regexp.MustCompile(`https?://(?:www\.)?(?:youtube\.com/watch\?v=[0-9A-Za-z_-]+|youtu\.be/[0-9A-Za-z_-]+|reddit\.com/r/\S+)`)

// Handler interprets inbound Telegram messages: /start links a chat to an
// account, replies to notification messages are answered from the matched
// item's content. Everything else is ignored.
type Handler struct {
	tg          *telegram.Client
	channelRepo database.ChannelRepository
	itemRepo    database.ItemRepository
	accountRepo database.AccountConfigRepository
	engine      *ingest.Engine
	generator   llm.Generator
	botToken    string
	model       string
}

func NewHandler(tg *telegram.Client, channelRepo database.ChannelRepository,
	itemRepo database.ItemRepository, accountRepo database.AccountConfigRepository,
	engine *ingest.Engine, generator llm.Generator, botToken, model string) *Handler {
	return &Handler{
		tg:          tg,
		channelRepo: channelRepo,
		itemRepo:    itemRepo,
		accountRepo: accountRepo,
		engine:      engine,
		generator:   generator,
		botToken:    botToken,
		model:       model,
	}
}

// HandleUpdate processes one webhook update. Failures are logged and folded
// into user-visible diagnostics; nothing propagates to the webhook response.
func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		h.handleStart(ctx, msg)
	case msg.ReplyToMessage != nil:
		h.handleReply(ctx, msg)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *telegram.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		h.reply(ctx, msg.Chat.ID, "Usage: /start <account id>")
		return
	}

	accountID := fields[1]
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	if err := h.accountRepo.UpsertChatID(accountID, chatID); err != nil {
		slog.Error("Failed to link chat to account", "account_id", accountID, "error", err)
		h.reply(ctx, msg.Chat.ID, genericErrorReply)
		return
	}

	slog.Info("Chat linked to account", "account_id", accountID, "chat_id", chatID)
	h.reply(ctx, msg.Chat.ID, welcomeReply)
}

func (h *Handler) handleReply(ctx context.Context, msg *telegram.Message) {
	link := itemLinkRe.FindString(msg.ReplyToMessage.Text)
	if link == "" {
		return
	}

	item, err := h.resolveItem(link)
	if err != nil {
		slog.Error("Failed to resolve item by link", "link", link, "error", err)
		h.reply(ctx, msg.Chat.ID, genericErrorReply)
		return
	}
	if item == nil {
		slog.Warn("Reply link did not match any item", "link", link)
		h.reply(ctx, msg.Chat.ID, unresolvedReply)
		return
	}

	content, err := h.engine.ContentFor(ctx, item)
	if err != nil {
		slog.Warn("Failed to load item content", "item_id", item.ID, "error", err)
	}

	if strings.EqualFold(strings.TrimSpace(msg.Text), "total") {
		if content == "" {
			h.reply(ctx, msg.Chat.ID, "No content is stored for this item.")
			return
		}
		h.reply(ctx, msg.Chat.ID, content)
		return
	}

	if content == "" {
		h.reply(ctx, msg.Chat.ID, notInContentReply)
		return
	}

	apiKey, err := h.llmKeyFor(item)
	if err != nil {
		slog.Error("Failed to look up account config for item", "item_id", item.ID, "error", err)
		h.reply(ctx, msg.Chat.ID, genericErrorReply)
		return
	}
	if apiKey == "" {
		h.reply(ctx, msg.Chat.ID, noLLMConfigReply)
		return
	}

	answer, err := h.generator.Generate(ctx, apiKey, h.model, buildPrompt(content, msg.Text))
	if err != nil {
		slog.Warn("LLM call failed", "item_id", item.ID, "error", err)
		if llm.IsQuotaError(err) {
			h.reply(ctx, msg.Chat.ID, rateLimitReply)
		} else {
			h.reply(ctx, msg.Chat.ID, genericErrorReply)
		}
		return
	}

	if item.Summary == "" && answer != notInContentReply {
		if err := h.itemRepo.UpdateSummary(item.ID, summarize(answer)); err != nil {
			slog.Warn("Failed to store item summary", "item_id", item.ID, "error", err)
		}
	}

	h.reply(ctx, msg.Chat.ID, answer)
}

// resolveItem matches a link to a stored item, exact first, then by prefix
// to absorb query-string drift between the notification link and the stored
// one. A nil item with nil error means no match.
func (h *Handler) resolveItem(link string) (*database.Item, error) {
	item, err := h.itemRepo.GetItemByLink(link)
	if err != nil {
		return nil, fmt.Errorf("failed to get item by link: %w", err)
	}
	if item != nil {
		return item, nil
	}

	item, err = h.itemRepo.GetItemByLinkPrefix(link)
	if err != nil {
		return nil, fmt.Errorf("failed to get item by link prefix: %w", err)
	}
	return item, nil
}

func (h *Handler) llmKeyFor(item *database.Item) (string, error) {
	ch, err := h.channelRepo.GetChannel(item.ChannelID)
	if err != nil {
		return "", fmt.Errorf("failed to get channel: %w", err)
	}
	if ch == nil {
		return "", nil
	}

	config, err := h.accountRepo.GetConfig(ch.OwnerID)
	if err != nil {
		return "", fmt.Errorf("failed to get account config: %w", err)
	}
	if config == nil {
		return "", nil
	}

	return config.LLMAPIKey, nil
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.tg.SendMessage(ctx, h.botToken, strconv.FormatInt(chatID, 10), text, false); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

func buildPrompt(content, question string) string {
	return fmt.Sprintf("Answer the question using only the content below. "+
		"Do not use outside knowledge. If the content does not contain the answer, "+
		"reply with exactly this sentence: %s\n\nContent:\n%s\n\nQuestion: %s",
		notInContentReply, content, question)
}

// summarize trims an LLM answer down to a caption-sized summary for the
// item row.
func summarize(answer string) string {
	const maxLen = 500
	answer = strings.TrimSpace(answer)
	if len(answer) <= maxLen {
		return answer
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(answer[cut]) {
		cut--
	}
	return answer[:cut]
}
