package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/spreadlab/claimtrace/models"
)

var eligibleHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
	"tiktok.com":      true,
	"www.tiktok.com":  true,
}

// Extractor shells out to yt-dlp for video metadata. A missing binary is not
// an error: extraction degrades to a stub record so the run can continue.
type Extractor struct {
	binPath string
	timeout time.Duration
}

func New(binPath string, timeout time.Duration) *Extractor {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Extractor{binPath: binPath, timeout: timeout}
}

func (e *Extractor) Name() string { return "ytdlp" }

func (e *Extractor) IsEligible(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return eligibleHosts[strings.ToLower(u.Host)]
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) (models.ExtractedContent, error) {
	if _, err := exec.LookPath(e.binPath); err != nil {
		return stub(rawURL), nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binPath, "-j", "--no-warnings", "--skip-download", rawURL)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return models.ExtractedContent{}, fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var meta struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Uploader    string `json:"uploader"`
		UploadDate  string `json:"upload_date"` // YYYYMMDD
		WebpageURL  string `json:"webpage_url"`
		Thumbnail   string `json:"thumbnail"`
	}
	if err := json.Unmarshal(out.Bytes(), &meta); err != nil {
		return models.ExtractedContent{}, fmt.Errorf("yt-dlp output: %w", err)
	}

	content := models.ExtractedContent{
		Platform:  models.PlatformVideo,
		SourceURL: rawURL,
		Author:    meta.Uploader,
		Title:     meta.Title,
		BodyText:  meta.Description,
	}
	if t, err := ParseUploadDate(meta.UploadDate); err == nil {
		content.PublishedAt = &t
	}
	if meta.Thumbnail != "" {
		content.MediaRefs = append(content.MediaRefs, meta.Thumbnail)
	}
	if meta.WebpageURL != "" {
		content.MediaRefs = append(content.MediaRefs, meta.WebpageURL)
	}
	return content, nil
}

// ParseUploadDate converts yt-dlp's 8-digit upload_date into a UTC timestamp.
func ParseUploadDate(s string) (time.Time, error) {
	return time.Parse("20060102", s)
}

func stub(rawURL string) models.ExtractedContent {
	return models.ExtractedContent{
		Platform:  models.PlatformVideo,
		SourceURL: rawURL,
		Title:     "Video content (metadata tool unavailable)",
		BodyText:  "",
	}
}
