package source

import (
	"time"
)

// Kind identifies which adapter handles a channel URL.
type Kind string

const (
	KindRSS     Kind = "rss"
	KindYouTube Kind = "youtube"
	KindReddit  Kind = "reddit"
)

// Content-kind classification values stored on items.
const (
	ContentShort    = "short"
	ContentLongform = "longform"
)

// Item is the normalized shape every adapter produces.
type Item struct {
	SourceID    string // Source-native identifier, unique per channel
	Title       string
	Link        string
	PublishedAt *time.Time
	Snippet     string // Short content excerpt (selftext, feed summary)
	Thumbnail   string
	ContentKind string
}
