package headless

import (
	"context"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/spreadlab/claimtrace/models"
	"github.com/spreadlab/claimtrace/tools/extract/article"
)

// Extractor is the fallback-of-last-resort: render the page in a headless
// browser, then re-parse the rendered markup with readability. Browser
// contexts are scoped to a single call and released on every exit path.
type Extractor struct {
	timeout      time.Duration
	userAgent    string
	minHTMLBytes int
	minBodyChars int
	maxBodyChars int
}

func New(timeout time.Duration, userAgent string, minHTMLBytes, minBodyChars, maxBodyChars int) *Extractor {
	return &Extractor{
		timeout:      timeout,
		userAgent:    userAgent,
		minHTMLBytes: minHTMLBytes,
		minBodyChars: minBodyChars,
		maxBodyChars: maxBodyChars,
	}
}

func (e *Extractor) Name() string { return "headless" }

func (e *Extractor) IsEligible(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (models.ExtractedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	html, err := e.fetchHTML(ctx, rawURL)
	if err != nil {
		return models.ExtractedContent{}, err
	}
	return article.Parse(html, rawURL, models.PlatformRender, e.minHTMLBytes, e.minBodyChars, e.maxBodyChars)
}

func (e *Extractor) fetchHTML(ctx context.Context, rawURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(e.userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
