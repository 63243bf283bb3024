package source

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	watchURLPrefix    = "https://www.youtube.com/watch?v="
	feedURLPrefix     = "https://www.youtube.com/feeds/videos.xml?channel_id="
	thumbnailTemplate = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
)

var channelIDRe = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{22})"`)

// YouTubeAdapter handles YouTube channels, either through the channel-id
// Atom feed or by scraping the channel page.
type YouTubeAdapter struct {
	httpClient *http.Client
	userAgent  string
}

var _ Adapter = (*YouTubeAdapter)(nil)

func NewYouTubeAdapter(httpClient *http.Client, userAgent string) *YouTubeAdapter {
	return &YouTubeAdapter{httpClient: httpClient, userAgent: userAgent}
}

func (a *YouTubeAdapter) Fetch(ctx context.Context, url string, limit int) ([]Item, error) {
	if strings.Contains(url, "/feeds/videos.xml") {
		return a.fetchAtom(ctx, url, limit)
	}

	// Channel page: the embedded initial-state blob carries more recent
	// uploads than the Atom feed's page, plus thumbnails.
	items, err := a.fetchVideosPage(ctx, url, limit)
	if err == nil && len(items) > 0 {
		return items, nil
	}

	feedURL, rerr := a.atomFeedURL(ctx, url)
	if rerr != nil {
		return nil, fmt.Errorf("failed to scrape channel page (%v) and to resolve feed URL: %w", err, rerr)
	}
	return a.fetchAtom(ctx, feedURL, limit)
}

// CanonicalChannelURL rewrites a legacy channel-id Atom feed URL to the
// canonical channel page URL the scraper polls. Other URLs pass through.
func CanonicalChannelURL(url string) string {
	const marker = "/feeds/videos.xml?channel_id="
	idx := strings.Index(url, marker)
	if idx < 0 {
		return url
	}
	id := url[idx+len(marker):]
	if amp := strings.Index(id, "&"); amp >= 0 {
		id = id[:amp]
	}
	if id == "" {
		return url
	}
	return "https://www.youtube.com/channel/" + id
}

// atomFeedURL scrapes a channel page for its channel id and builds the
// channel-id Atom feed URL. Used as the fallback when the videos page
// scrape yields nothing.
func (a *YouTubeAdapter) atomFeedURL(ctx context.Context, url string) (string, error) {
	data, err := fetchBody(ctx, a.httpClient, a.userAgent, url)
	if err != nil {
		return "", err
	}

	id, err := channelIDFromPage(data)
	if err != nil {
		return "", fmt.Errorf("failed to locate channel id on %s: %w", url, err)
	}

	return feedURLPrefix + id, nil
}

func (a *YouTubeAdapter) fetchAtom(ctx context.Context, url string, limit int) ([]Item, error) {
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

		videoID := sourceIDFromGUID(cmp.Or(fi.GUID, fi.Link))
		item := Item{
			SourceID:  videoID,
			Title:     fi.Title,
			Link:      cmp.Or(fi.Link, watchURLPrefix+videoID),
			Snippet:   fi.Description,
			Thumbnail: fmt.Sprintf(thumbnailTemplate, videoID),
		}
		if fi.PublishedParsed != nil {
			item.PublishedAt = fi.PublishedParsed
		}
		item.ContentKind = Classify(item.Title, item.Snippet)

		items = append(items, item)
	}

	return items, nil
}

// fetchVideosPage scrapes the channel videos page's embedded initial-state
// JSON blob and walks it for video-renderer nodes.
func (a *YouTubeAdapter) fetchVideosPage(ctx context.Context, channelURL string, limit int) ([]Item, error) {
	url := strings.TrimSuffix(channelURL, "/") + "/videos"
	data, err := fetchBody(ctx, a.httpClient, a.userAgent, url)
	if err != nil {
		return nil, err
	}

	doc, err := initialState(data)
	if err != nil {
		return nil, err
	}

	var items []Item
	seen := make(map[string]bool)
	walkDoc(doc, func(node map[string]any) {
		renderer := docMap(node, "videoRenderer")
		if renderer == nil {
			return
		}
		videoID := docString(renderer, "videoId")
		if videoID == "" || seen[videoID] {
			return
		}
		seen[videoID] = true

		title := runsText(docMap(renderer, "title"))
		item := Item{
			SourceID:  videoID,
			Title:     title,
			Link:      watchURLPrefix + videoID,
			Snippet:   runsText(docMap(renderer, "descriptionSnippet")),
			Thumbnail: fmt.Sprintf(thumbnailTemplate, videoID),
		}
		item.ContentKind = Classify(item.Title, item.Snippet)

		items = append(items, item)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

// channelIDFromPage locates the channel id in raw channel page HTML: the
// channelId meta tag first, then the canonical /channel/<id> link, then a
// regex over the embedded page state.
func channelIDFromPage(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err == nil {
		if id, ok := doc.Find(`meta[itemprop="channelId"]`).Attr("content"); ok && id != "" {
			return id, nil
		}
		if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
			if idx := strings.Index(href, "/channel/"); idx >= 0 {
				if id := strings.TrimSuffix(href[idx+len("/channel/"):], "/"); id != "" {
					return id, nil
				}
			}
		}
	}

	if m := channelIDRe.FindSubmatch(data); m != nil {
		return string(m[1]), nil
	}

	return "", fmt.Errorf("no channel id found in page")
}

// initialState extracts and parses the ytInitialData blob from channel
// page HTML.
func initialState(data []byte) (any, error) {
	page := string(data)

	const marker = "var ytInitialData = "
	start := strings.Index(page, marker)
	if start < 0 {
		return nil, fmt.Errorf("no initial-state blob found in page")
	}
	start += len(marker)

	end := strings.Index(page[start:], ";</script>")
	if end < 0 {
		return nil, fmt.Errorf("unterminated initial-state blob")
	}

	var doc any
	if err := json.Unmarshal([]byte(page[start:start+end]), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse initial-state JSON: %w", err)
	}

	return doc, nil
}

// walkDoc visits every map node in an untyped JSON document. Map keys are
// visited in sorted order so traversal, and with it first-seen video
// ordering, is deterministic.
func walkDoc(doc any, visit func(map[string]any)) {
	switch node := doc.(type) {
	case map[string]any:
		visit(node)
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkDoc(node[k], visit)
		}
	case []any:
		for _, v := range node {
			walkDoc(v, visit)
		}
	}
}

// runsText concatenates the text runs of a YouTube renderer text node.
func runsText(node map[string]any) string {
	runs := docSlice(node, "runs")
	if len(runs) == 0 {
		return docString(node, "simpleText")
	}

	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(docString(run, "text"))
	}
	return sb.String()
}
