package database

import (
	"time"
)

// ChannelItem is the normalized shape handed to the item repository by the
// ingestion engine.
type ChannelItem struct {
	SourceID    string
	Title       string
	Link        string
	PublishedAt *time.Time
	Thumbnail   string
	Content     string
	ContentKind string
	Notified    bool
}

type ChannelRepository interface {
	GetChannel(id string) (*Channel, error)
	GetChannels() ([]Channel, error)
	GetChannelCount() (int, error)

	UpsertChannel(ownerID, name, url string) (string, bool, error)
	UpdateFeedURL(id, feedURL string) error
	UpdateLastChecked(id string, checkedAt time.Time) error
}

type ItemRepository interface {
	GetItem(id string) (*Item, error)
	GetItemBySourceID(channelID, sourceID string) (*Item, error)
	GetItemByLink(link string) (*Item, error)
	GetItemByLinkPrefix(prefix string) (*Item, error)
	GetItems(channelID string, limit int) ([]Item, error)
	GetItemCount(channelID string) (int, error)

	InsertItem(channelID string, item ChannelItem) (bool, error)
	UpdateContent(itemID, content string) error
	UpdateSummary(itemID, summary string) error
	MarkNotified(itemID string) error
}

type AccountConfigRepository interface {
	GetConfig(ownerID string) (*AccountConfig, error)
	UpsertChatID(ownerID, chatID string) error
}
