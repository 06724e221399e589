package article

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spreadlab/claimtrace/models"
)

func pageWithBody(body string) string {
	return `<!DOCTYPE html><html><head><title>Test Article</title></head><body><article><h1>Test Article</h1><p>` + body + `</p></article></body></html>`
}

func longBody() string {
	return strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
}

func TestIsEligible(t *testing.T) {
	e := New(time.Second, "test-agent", 1024, 100, 0)
	if !e.IsEligible("https://example.com/story") {
		t.Error("https URL should be eligible")
	}
	if !e.IsEligible("http://example.com/story") {
		t.Error("http URL should be eligible")
	}
	if e.IsEligible("ftp://example.com/story") {
		t.Error("ftp URL should not be eligible")
	}
}

func TestParseRejectsSmallMarkup(t *testing.T) {
	_, err := Parse("<html></html>", "https://example.com", models.PlatformArticle, 1024, 100, 0)
	if !errors.Is(err, models.ErrContentTooSmall) {
		t.Fatalf("expected ErrContentTooSmall for tiny markup, got %v", err)
	}
}

func TestParseRejectsSmallBody(t *testing.T) {
	// markup passes the byte gate, extracted text fails the char gate
	html := pageWithBody("short.") + strings.Repeat("<!-- padding -->", 100)
	_, err := Parse(html, "https://example.com", models.PlatformArticle, 1024, 100, 0)
	if !errors.Is(err, models.ErrContentTooSmall) {
		t.Fatalf("expected ErrContentTooSmall for tiny body, got %v", err)
	}
}

func TestParseExtractsContent(t *testing.T) {
	content, err := Parse(pageWithBody(longBody()), "https://example.com/story", models.PlatformRender, 1024, 100, 0)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if content.Platform != models.PlatformRender {
		t.Errorf("platform %q", content.Platform)
	}
	if !strings.Contains(content.BodyText, "quick brown fox") {
		t.Errorf("body %q", content.BodyText)
	}
	if content.SourceURL != "https://example.com/story" {
		t.Errorf("source url %q", content.SourceURL)
	}
}

func TestParseTruncatesBody(t *testing.T) {
	content, err := Parse(pageWithBody(longBody()), "https://example.com", models.PlatformArticle, 1024, 100, 200)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(content.BodyText) != 200 {
		t.Errorf("body length %d, want 200", len(content.BodyText))
	}
}

func TestExtractFetchesAndParses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("user agent %q", ua)
		}
		w.Write([]byte(pageWithBody(longBody())))
	}))
	defer ts.Close()

	e := New(time.Second, "test-agent", 1024, 100, 0)
	content, err := e.Extract(context.Background(), ts.URL+"/story")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if content.Platform != models.PlatformArticle {
		t.Errorf("platform %q", content.Platform)
	}
	if !strings.Contains(content.BodyText, "quick brown fox") {
		t.Errorf("body %q", content.BodyText)
	}
}

func TestExtractNon200Status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	e := New(time.Second, "test-agent", 1024, 100, 0)
	if _, err := e.Extract(context.Background(), ts.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
