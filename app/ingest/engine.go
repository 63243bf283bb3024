package ingest

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgram/feedgram/app/content"
	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/notify"
	"github.com/feedgram/feedgram/app/source"
)

// Dispatcher delivers a new-item notification to the channel owner.
type Dispatcher interface {
	Notify(ctx context.Context, ownerID string, item database.Item, kind source.Kind) notify.Result
}

// Engine runs the dedup and ingestion pass for one channel: fetch the
// normalized item sequence, insert genuinely new items, dispatch
// notifications, stamp the channel as checked.
type Engine struct {
	adapters    *source.Registry
	fetcher     *content.Fetcher
	channelRepo database.ChannelRepository
	itemRepo    database.ItemRepository
	dispatcher  Dispatcher

	pollLimit     int
	backfillLimit int
}

func NewEngine(adapters *source.Registry, fetcher *content.Fetcher,
	channelRepo database.ChannelRepository, itemRepo database.ItemRepository,
	dispatcher Dispatcher, pollLimit, backfillLimit int) *Engine {
	return &Engine{
		adapters:      adapters,
		fetcher:       fetcher,
		channelRepo:   channelRepo,
		itemRepo:      itemRepo,
		dispatcher:    dispatcher,
		pollLimit:     pollLimit,
		backfillLimit: backfillLimit,
	}
}

// PollChannel ingests new items for one channel and attempts a
// notification for each. Adapter failures surface as errors; the caller
// isolates them so one broken channel never aborts a cycle.
func (e *Engine) PollChannel(ctx context.Context, ch database.Channel) error {
	return e.process(ctx, ch, e.pollLimit, false)
}

// Backfill runs the initial ingestion for a freshly registered channel.
// Items are created already marked notified so historical content does
// not produce a notification storm, and the fetch window stays small.
func (e *Engine) Backfill(ctx context.Context, ch database.Channel) error {
	return e.process(ctx, ch, e.backfillLimit, true)
}

func (e *Engine) process(ctx context.Context, ch database.Channel, limit int, backfill bool) error {
	feedURL := e.resolveFeedURL(ctx, ch)
	adapter := e.adapters.ForURL(feedURL)
	kind := source.KindOf(feedURL)

	items, err := adapter.Fetch(ctx, feedURL, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch channel %s: %w", ch.Name, err)
	}

	newCount := 0
	notifiedCount := 0
	for _, item := range items {
		existing, err := e.itemRepo.GetItemBySourceID(ch.ID, item.SourceID)
		if err != nil {
			return fmt.Errorf("failed to check item %s: %w", item.SourceID, err)
		}
		if existing != nil {
			continue
		}

		// Content fetch is best-effort and only attempted for items we
		// are actually about to insert.
		text := e.fetcher.Fetch(ctx, item)

		inserted, err := e.itemRepo.InsertItem(ch.ID, database.ChannelItem{
			SourceID:    item.SourceID,
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: item.PublishedAt,
			Thumbnail:   item.Thumbnail,
			Content:     text,
			ContentKind: item.ContentKind,
			Notified:    backfill,
		})
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.SourceID, err)
		}
		if !inserted {
			// A concurrent pass won the insert race; the unique
			// constraint absorbed it.
			continue
		}
		newCount++

		if !backfill && e.notifyNew(ctx, ch, item.SourceID, kind) {
			notifiedCount++
		}
	}

	if err := e.channelRepo.UpdateLastChecked(ch.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update last checked: %w", err)
	}

	slog.Info("Channel processed",
		"channel", ch.Name,
		"kind", string(kind),
		"backfill", backfill,
		"total", len(items),
		"new", newCount,
		"notified", notifiedCount)

	return nil
}

// resolveFeedURL picks the URL to poll, persisting the normalized form
// the first time a channel is seen.
func (e *Engine) resolveFeedURL(ctx context.Context, ch database.Channel) string {
	if ch.FeedURL != "" {
		return ch.FeedURL
	}

	resolved := e.adapters.NormalizeURL(ch.URL)
	if err := e.channelRepo.UpdateFeedURL(ch.ID, resolved); err != nil {
		slog.Warn("Failed to persist resolved feed URL", "channel", ch.Name, "error", err)
	}
	return resolved
}

func (e *Engine) notifyNew(ctx context.Context, ch database.Channel, sourceID string, kind source.Kind) bool {
	item, err := e.itemRepo.GetItemBySourceID(ch.ID, sourceID)
	if err != nil || item == nil {
		slog.Warn("Failed to reload item for notification", "channel", ch.Name, "source_id", sourceID, "error", err)
		return false
	}

	res := e.dispatcher.Notify(ctx, ch.OwnerID, *item, kind)
	if !res.Success {
		slog.Info("Notification skipped", "channel", ch.Name, "item", item.ID, "reason", res.Reason)
		return false
	}

	if err := e.itemRepo.MarkNotified(item.ID); err != nil {
		slog.Error("Failed to mark item notified", "item", item.ID, "error", err)
		return false
	}
	return true
}

// ContentFor returns an item's stored content, fetching and persisting the
// transcript on first use. Safe to double-apply: a concurrent caller
// writes the same value.
func (e *Engine) ContentFor(ctx context.Context, item *database.Item) (string, error) {
	if item.Content != "" {
		return item.Content, nil
	}

	text := e.fetcher.Fetch(ctx, source.Item{
		Link:    item.Link,
		Snippet: cmp.Or(item.Content, item.Summary),
	})
	if text == "" {
		return "", nil
	}

	if err := e.itemRepo.UpdateContent(item.ID, text); err != nil {
		return "", fmt.Errorf("failed to persist content: %w", err)
	}
	item.Content = text

	return text, nil
}
