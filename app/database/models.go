package database

import (
	"time"
)

type Channel struct {
	ID          string // Database UUID
	OwnerID     string
	Name        string
	URL         string // Source URL as registered (channel page, subreddit, feed)
	FeedURL     string // Resolved feed URL, filled in by the source adapters
	LastChecked *time.Time
	CreatedAt   time.Time
}

type Item struct {
	ID          string
	ChannelID   string
	SourceID    string // Source-native identifier, unique per channel
	Title       string
	Link        string
	PublishedAt *time.Time
	Thumbnail   string
	Content     string // Long-form content or transcript, back-filled lazily
	Summary     string
	ContentKind string // "short" or "longform"
	Notified    bool
	CreatedAt   time.Time
}

// AccountConfig holds per-account messaging and LLM credentials. The core
// only reads it to decide whether and how to notify; the single exception
// is the /start link flow, which upserts the chat id.
type AccountConfig struct {
	OwnerID   string
	BotToken  string
	ChatID    string
	LLMAPIKey string
}
