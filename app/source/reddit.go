package source

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RedditAdapter handles subreddit listings via the public .json endpoint.
type RedditAdapter struct {
	httpClient *http.Client
	userAgent  string
}

var _ Adapter = (*RedditAdapter)(nil)

func NewRedditAdapter(httpClient *http.Client, userAgent string) *RedditAdapter {
	return &RedditAdapter{httpClient: httpClient, userAgent: userAgent}
}

func (a *RedditAdapter) Fetch(ctx context.Context, url string, limit int) ([]Item, error) {
	data, err := fetchBody(ctx, a.httpClient, a.userAgent, listingURL(url, limit))
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse listing JSON: %w", err)
	}

	children := docSlice(docMap(doc, "data"), "children")
	items := make([]Item, 0, len(children))
	for _, child := range children {
		post := docMap(child, "data")
		if post == nil {
			continue
		}
		if limit > 0 && len(items) >= limit {
			break
		}
		items = append(items, normalizePost(post))
	}

	return items, nil
}

func listingURL(url string, limit int) string {
	u := strings.TrimSuffix(url, "/") + ".json"
	if limit > 0 {
		u = fmt.Sprintf("%s?limit=%d", u, limit)
	}
	return u
}

func normalizePost(post map[string]any) Item {
	title := docString(post, "title")
	snippet := cmp.Or(docString(post, "selftext"), title)

	item := Item{
		SourceID:  docString(post, "id"),
		Title:     title,
		Link:      "https://www.reddit.com" + docString(post, "permalink"),
		Snippet:   snippet,
		Thumbnail: postThumbnail(post),
	}

	if epoch, ok := docFloat(post, "created_utc"); ok {
		published := time.Unix(int64(epoch), 0).UTC()
		item.PublishedAt = &published
	}

	item.ContentKind = Classify(item.Title, item.Snippet)

	return item
}

// postThumbnail picks the post's thumbnail field when it is a real URL
// (Reddit uses placeholder words like "self" and "default" otherwise),
// falling back to the first preview image with its HTML-escaped ampersands
// decoded. Empty string when neither exists.
func postThumbnail(post map[string]any) string {
	if thumb := docString(post, "thumbnail"); strings.HasPrefix(thumb, "http") {
		return thumb
	}

	images := docSlice(docMap(post, "preview"), "images")
	if len(images) == 0 {
		return ""
	}
	url := docString(docMap(images[0], "source"), "url")
	return strings.ReplaceAll(url, "&amp;", "&")
}

// Named-field accessors over untyped JSON documents. Every access
// tolerates absence and shape drift.

func docMap(doc any, key string) map[string]any {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

func docSlice(doc any, key string) []any {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	s, _ := m[key].([]any)
	return s
}

func docString(doc any, key string) string {
	m, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func docFloat(doc any, key string) (float64, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return 0, false
	}
	f, ok := m[key].(float64)
	return f, ok
}
