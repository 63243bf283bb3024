package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feedgram/feedgram/app/source"
)

func TestTranscript(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/watch"):
			// Watch pages escape the caption URL the way JSON string
			// literals do: every ampersand as &, slashes as \/.
			trackURL := strings.ReplaceAll(srv.URL+"/api/timedtext?v=vid&lang=en", "&", `&`)
			trackURL = strings.ReplaceAll(trackURL, "/", `\/`)
			fmt.Fprintf(w, `<html><script>var cfg = {"captionTracks":[{"baseUrl":"%s","name":"English"}]};</script></html>`, trackURL)
		case strings.HasPrefix(r.URL.Path, "/api/timedtext"):
			w.Write([]byte(`<?xml version="1.0"?><transcript>
<text start="0.0" dur="2.0">Hello there,</text>
<text start="2.0" dur="2.0">this is a</text>
<text start="4.0" dur="2.0">caption &amp; a test</text>
</transcript>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "Test Agent")
	text, err := f.Transcript(context.Background(), srv.URL+"/watch?v=vid")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := "Hello there, this is a caption & a test"
	if text != want {
		t.Errorf("Expected %q, got: %q", want, text)
	}
}

func TestTranscriptNoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no captions here</body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "Test Agent")
	if _, err := f.Transcript(context.Background(), srv.URL+"/watch?v=vid"); err == nil {
		t.Error("Expected error when captions are missing")
	}
}

func TestFetchDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "Test Agent")

	// A YouTube-shaped link whose transcript fetch fails yields ""
	got := f.Fetch(context.Background(), source.Item{Link: "https://www.youtube.com/watch?v=missing1234"})
	if got != "" {
		t.Errorf("Expected empty content, got: %q", got)
	}

	// Non-YouTube, non-Reddit links are never fetched
	got = f.Fetch(context.Background(), source.Item{Link: "https://example.com/post", Snippet: "ignored"})
	if got != "" {
		t.Errorf("Expected empty content for generic link, got: %q", got)
	}
}

func TestFetchRedditStripsHTML(t *testing.T) {
	f := NewFetcher(http.DefaultClient, "Test Agent")

	item := source.Item{
		Link:    "https://www.reddit.com/r/test/comments/abc/post/",
		Snippet: "<p>Some <b>bold</b> text &amp; a <a href=\"https://example.com\">link</a></p>",
	}

	got := f.Fetch(context.Background(), item)
	want := "Some bold text & a link"
	if got != want {
		t.Errorf("Expected %q, got: %q", want, got)
	}
}

func TestStripHTMLPlainTextPassthrough(t *testing.T) {
	f := NewFetcher(http.DefaultClient, "Test Agent")
	if got := f.StripHTML("already plain"); got != "already plain" {
		t.Errorf("Expected passthrough, got: %q", got)
	}
}
