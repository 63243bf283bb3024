package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedgram/feedgram/app/bot"
	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/tasks"
	"github.com/feedgram/feedgram/app/telegram"
)

func NewHandler(channelRepo database.ChannelRepository, itemRepo database.ItemRepository,
	scheduler tasks.TaskSchedulerInterface, botHandler *bot.Handler, webhookSecret string) *Handler {
	return &Handler{
		channelRepo:   channelRepo,
		itemRepo:      itemRepo,
		scheduler:     scheduler,
		bot:           botHandler,
		webhookSecret: webhookSecret,
	}
}

// TelegramWebhook receives inbound bot updates. It always answers 200 so
// Telegram does not retry-storm a broken handler; internal failures are
// logged inside the bot handler.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	if h.webhookSecret != "" {
		if c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != h.webhookSecret {
			c.Status(http.StatusForbidden)
			return
		}
	}

	var update telegram.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		slog.Warn("Failed to decode webhook payload", "error", err)
		c.Status(http.StatusOK)
		return
	}

	h.bot.HandleUpdate(c.Request.Context(), update)

	c.Status(http.StatusOK)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if channelCount, err := h.channelRepo.GetChannelCount(); err == nil {
		health["channels"] = channelCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) TriggerPoll(c *gin.Context) {
	if err := h.scheduler.EnqueueFullCycle(); err != nil {
		slog.Error("Failed to enqueue poll cycle", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue poll cycle"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "poll cycle enqueued"})
}

func (h *Handler) ListChannels(c *gin.Context) {
	chs, err := h.channelRepo.GetChannels()
	if err != nil {
		slog.Error("Database error", "operation", "get_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	channels := make([]map[string]interface{}, 0, len(chs))
	for _, ch := range chs {
		info := map[string]interface{}{
			"id":       ch.ID,
			"name":     ch.Name,
			"url":      ch.URL,
			"feed_url": ch.FeedURL,
		}
		if ch.LastChecked != nil {
			info["last_checked"] = ch.LastChecked
		}
		if itemCount, err := h.itemRepo.GetItemCount(ch.ID); err == nil {
			info["item_count"] = itemCount
		}
		channels = append(channels, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"channels": channels,
		"total":    len(channels),
	})
}
