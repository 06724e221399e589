package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spreadlab/claimtrace/models"
)

// ErrInvalidURLFormat is a hard extraction failure: the host was eligible but
// the path does not point at a thread.
var ErrInvalidURLFormat = errors.New("invalid reddit url format")

var commentsPattern = regexp.MustCompile(`/comments/([A-Za-z0-9]+)`)

var eligibleHosts = map[string]bool{
	"reddit.com":     true,
	"www.reddit.com": true,
	"old.reddit.com": true,
	"np.reddit.com":  true,
}

// Extractor pulls thread metadata from reddit's public JSON endpoint.
type Extractor struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Extractor {
	return &Extractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (e *Extractor) Name() string { return "reddit" }

func (e *Extractor) IsEligible(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return eligibleHosts[strings.ToLower(u.Host)]
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (models.ExtractedContent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.ExtractedContent{}, fmt.Errorf("parse url: %w", err)
	}
	if !commentsPattern.MatchString(u.Path) {
		return models.ExtractedContent{}, ErrInvalidURLFormat
	}

	endpoint := *u
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + ".json"
	endpoint.RawQuery = "raw_json=1"

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return models.ExtractedContent{}, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return models.ExtractedContent{}, fmt.Errorf("fetch thread: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.ExtractedContent{}, fmt.Errorf("thread endpoint returned status %d", resp.StatusCode)
	}

	sub, err := decodeThread(resp.Body)
	if err != nil {
		return models.ExtractedContent{}, err
	}

	content := models.ExtractedContent{
		Platform:  models.PlatformReddit,
		SourceURL: rawURL,
		Author:    sub.Author,
		Title:     sub.Title,
		BodyText:  sub.Selftext,
	}
	if sub.CreatedUTC > 0 {
		t := time.Unix(int64(sub.CreatedUTC), 0).UTC()
		content.PublishedAt = &t
	}
	content.MediaRefs = sub.mediaRefs()
	return content, nil
}

type submission struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Selftext   string  `json:"selftext"`
	CreatedUTC float64 `json:"created_utc"`
	IsSelf     bool    `json:"is_self"`
	IsVideo    bool    `json:"is_video"`
	URL        string  `json:"url_overridden_by_dest"`
	Media      struct {
		RedditVideo struct {
			FallbackURL string `json:"fallback_url"`
		} `json:"reddit_video"`
	} `json:"secure_media"`
}

func (s submission) mediaRefs() []string {
	var refs []string
	if s.IsVideo && s.Media.RedditVideo.FallbackURL != "" {
		refs = append(refs, s.Media.RedditVideo.FallbackURL)
	} else if !s.IsSelf && s.URL != "" {
		refs = append(refs, s.URL)
	}
	return refs
}

// decodeThread unwraps the listing envelope the .json endpoint returns:
// an array whose first element holds the submission itself.
func decodeThread(r io.Reader) (submission, error) {
	var listing []struct {
		Data struct {
			Children []struct {
				Data submission `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&listing); err != nil {
		return submission{}, fmt.Errorf("decode thread: %w", err)
	}
	if len(listing) == 0 || len(listing[0].Data.Children) == 0 {
		return submission{}, errors.New("thread listing is empty")
	}
	return listing[0].Data.Children[0].Data, nil
}
