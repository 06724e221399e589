package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const threadFixture = `[
  {"data": {"children": [
    {"data": {
      "title": "Cat learns to open doors",
      "author": "alice",
      "selftext": "Our cat figured out lever handles this week.",
      "created_utc": 1610000000,
      "is_self": true,
      "is_video": false
    }}
  ]}},
  {"data": {"children": []}}
]`

func TestIsEligible(t *testing.T) {
	e := New(time.Second, "test-agent")
	cases := []struct {
		url  string
		want bool
	}{
		{"https://www.reddit.com/r/aww/comments/kv8q8d/", true},
		{"https://old.reddit.com/r/aww/comments/kv8q8d/", true},
		{"https://reddit.com/r/aww/", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://example.com/r/aww/comments/kv8q8d/", false},
		{"not a url", false},
	}
	for _, c := range cases {
		if got := e.IsEligible(c.url); got != c.want {
			t.Errorf("IsEligible(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestExtractInvalidPathFormat(t *testing.T) {
	e := New(time.Second, "test-agent")
	_, err := e.Extract(context.Background(), "https://www.reddit.com/r/aww/")
	if !errors.Is(err, ErrInvalidURLFormat) {
		t.Fatalf("expected ErrInvalidURLFormat, got %v", err)
	}
}

func TestExtractMapsThreadFields(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(threadFixture))
	}))
	defer ts.Close()

	e := New(time.Second, "test-agent")
	content, err := e.Extract(context.Background(), ts.URL+"/r/aww/comments/kv8q8d/")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if gotPath != "/r/aww/comments/kv8q8d.json" {
		t.Errorf("fetched path %q, want /r/aww/comments/kv8q8d.json", gotPath)
	}
	if gotQuery != "raw_json=1" {
		t.Errorf("fetched query %q, want raw_json=1", gotQuery)
	}
	if gotUA != "test-agent" {
		t.Errorf("user agent %q, want test-agent", gotUA)
	}

	if content.Title != "Cat learns to open doors" {
		t.Errorf("title %q", content.Title)
	}
	if content.Author != "alice" {
		t.Errorf("author %q", content.Author)
	}
	if !strings.Contains(content.BodyText, "lever handles") {
		t.Errorf("body %q", content.BodyText)
	}
	if content.PublishedAt == nil {
		t.Fatal("published_at not set")
	}
	if got := content.PublishedAt.Unix(); got != 1610000000 {
		t.Errorf("published_at unix %d, want 1610000000", got)
	}
	if len(content.MediaRefs) != 0 {
		t.Errorf("self post should carry no media refs, got %v", content.MediaRefs)
	}
}

func TestExtractVideoPostMediaRef(t *testing.T) {
	fixture := `[{"data": {"children": [{"data": {
		"title": "clip", "author": "bob", "created_utc": 1610000000,
		"is_video": true,
		"secure_media": {"reddit_video": {"fallback_url": "https://v.redd.it/abc/DASH_720.mp4"}}
	}}]}}]`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fixture))
	}))
	defer ts.Close()

	e := New(time.Second, "test-agent")
	content, err := e.Extract(context.Background(), ts.URL+"/r/videos/comments/abc123/")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(content.MediaRefs) != 1 || !strings.Contains(content.MediaRefs[0], "v.redd.it") {
		t.Errorf("media refs %v", content.MediaRefs)
	}
}

func TestDecodeThreadEmptyListing(t *testing.T) {
	if _, err := decodeThread(strings.NewReader("[]")); err == nil {
		t.Fatal("expected error on empty listing")
	}
	if _, err := decodeThread(strings.NewReader("not json")); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
