package content

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/feedgram/feedgram/app/source"
)

var (
	watchLinkRe    = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([0-9A-Za-z_-]{6,})`)
	captionTrackRe = regexp.MustCompile(`"captionTracks":\[\{"baseUrl":"([^"]+)"`)
)

// Fetcher retrieves long-form text content for a normalized item on a
// best-effort basis. Every failure degrades to an empty string; content
// fetching must never block ingestion or notification.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	stripper   *bluemonday.Policy
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		stripper:   bluemonday.StrictPolicy(),
	}
}

// Fetch returns the text content for an item: the caption transcript for
// YouTube watch links, the tag-stripped selftext for Reddit posts, and an
// empty string for everything else.
func (f *Fetcher) Fetch(ctx context.Context, item source.Item) string {
	switch {
	case strings.Contains(item.Link, "reddit.com"):
		return f.StripHTML(item.Snippet)
	case watchLinkRe.MatchString(item.Link):
		text, err := f.Transcript(ctx, item.Link)
		if err != nil {
			slog.Debug("Transcript unavailable", "link", item.Link, "error", err)
			return ""
		}
		return text
	default:
		return ""
	}
}

// Transcript fetches the caption track for a YouTube watch URL and
// concatenates the caption text with single-space separators.
func (f *Fetcher) Transcript(ctx context.Context, watchURL string) (string, error) {
	page, err := f.get(ctx, watchURL)
	if err != nil {
		return "", err
	}

	m := captionTrackRe.FindSubmatch(page)
	if m == nil {
		return "", fmt.Errorf("no caption tracks on %s", watchURL)
	}

	// The base URL is captured out of a JSON string literal with its
	// escapes intact (& for every ampersand, \/ for slashes), so
	// decode it as one.
	var trackURL string
	if err := json.Unmarshal([]byte(`"`+string(m[1])+`"`), &trackURL); err != nil {
		return "", fmt.Errorf("failed to decode caption track URL: %w", err)
	}

	track, err := f.get(ctx, trackURL)
	if err != nil {
		return "", err
	}

	return parseTimedText(track)
}

// StripHTML reduces raw HTML to plain text.
func (f *Fetcher) StripHTML(raw string) string {
	return strings.TrimSpace(html.UnescapeString(f.stripper.Sanitize(raw)))
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error fetching %s: %d %s", url, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("failed to parse caption track: %w", err)
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, text := range tt.Texts {
		if v := strings.TrimSpace(html.UnescapeString(text.Value)); v != "" {
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, " "), nil
}
