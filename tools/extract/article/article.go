package article

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/spreadlab/claimtrace/models"
)

// Extractor is the generic fallback for any http(s) URL: plain fetch plus
// readability parse, empty strings for whatever metadata is missing.
type Extractor struct {
	client       *http.Client
	userAgent    string
	minHTMLBytes int
	minBodyChars int
	maxBodyChars int
}

func New(timeout time.Duration, userAgent string, minHTMLBytes, minBodyChars, maxBodyChars int) *Extractor {
	return &Extractor{
		client:       &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		minHTMLBytes: minHTMLBytes,
		minBodyChars: minBodyChars,
		maxBodyChars: maxBodyChars,
	}
}

func (e *Extractor) Name() string { return "article" }

func (e *Extractor) IsEligible(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (models.ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return models.ExtractedContent{}, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return models.ExtractedContent{}, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.ExtractedContent{}, fmt.Errorf("article fetch returned status %d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return models.ExtractedContent{}, err
	}
	return Parse(string(html), rawURL, models.PlatformArticle, e.minHTMLBytes, e.minBodyChars, e.maxBodyChars)
}

// Parse runs readability over raw markup and applies the minimum-content
// gates shared with the headless extractor. Violations return
// models.ErrContentTooSmall so the router moves on to the next strategy.
func Parse(html, rawURL string, platform models.Platform, minHTMLBytes, minBodyChars, maxBodyChars int) (models.ExtractedContent, error) {
	if len(html) < minHTMLBytes {
		return models.ExtractedContent{}, fmt.Errorf("%w: %d raw bytes", models.ErrContentTooSmall, len(html))
	}

	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(rawURL))
	if err != nil {
		return models.ExtractedContent{}, fmt.Errorf("readability: %w", err)
	}

	body := strings.TrimSpace(article.TextContent)
	if len(body) < minBodyChars {
		return models.ExtractedContent{}, fmt.Errorf("%w: %d body chars", models.ErrContentTooSmall, len(body))
	}
	if maxBodyChars > 0 && len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	content := models.ExtractedContent{
		Platform:  platform,
		SourceURL: rawURL,
		Author:    strings.TrimSpace(article.Byline),
		Title:     strings.TrimSpace(article.Title),
		BodyText:  body,
	}
	if article.Image != "" {
		content.MediaRefs = append(content.MediaRefs, article.Image)
	}
	return content, nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
