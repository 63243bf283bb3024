package source

import (
	"cmp"
	"context"
	"net/http"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter handles generic RSS and Atom feeds.
type RSSAdapter struct {
	httpClient *http.Client
	userAgent  string
}

var _ Adapter = (*RSSAdapter)(nil)

func NewRSSAdapter(httpClient *http.Client, userAgent string) *RSSAdapter {
	return &RSSAdapter{httpClient: httpClient, userAgent: userAgent}
}

func (a *RSSAdapter) Fetch(ctx context.Context, url string, limit int) ([]Item, error) {
	data, err := fetchBody(ctx, a.httpClient, a.userAgent, url)
	if err != nil {
		return nil, err
	}

	feed, err := parseFeed(data)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		items = append(items, normalizeFeedItem(fi))
	}

	return items, nil
}

func normalizeFeedItem(fi *gofeed.Item) Item {
	snippet := cmp.Or(fi.Content, fi.Description)

	item := Item{
		SourceID: sourceIDFromGUID(cmp.Or(fi.GUID, fi.Link)),
		Title:    fi.Title,
		Link:     fi.Link,
		Snippet:  snippet,
	}

	if fi.PublishedParsed != nil {
		item.PublishedAt = fi.PublishedParsed
	} else if fi.UpdatedParsed != nil {
		item.PublishedAt = fi.UpdatedParsed
	}

	if fi.Image != nil {
		item.Thumbnail = fi.Image.URL
	}

	item.ContentKind = Classify(item.Title, item.Snippet)

	return item
}
